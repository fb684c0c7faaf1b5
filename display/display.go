// Package display holds the presentation side of the pipeline: a gocv
// window, a stdin console for picks and toggles, and a JPEG recorder for
// headless runs.
package display

import (
	"gocv.io/x/gocv"

	"huecam/overlay"
	"huecam/tracking"
)

// Global debug function for display package
var debugMsgFunc func(component, message string)

// SetDebugFunction allows main package to provide debug function
func SetDebugFunction(fn func(component, message string)) {
	debugMsgFunc = fn
}

func debugMsg(component, message string) {
	if debugMsgFunc != nil {
		debugMsgFunc(component, message)
	}
}

// Controls are the user actions the pipeline accepts
type Controls interface {
	PickPixel(x, y int) error
	ToggleTracking() tracking.Mode
}

// Multi fans every call out to each presenter in order
type Multi []tracking.Presenter

// RenderFrame implements tracking.Presenter
func (m Multi) RenderFrame(frame gocv.Mat) {
	for _, p := range m {
		p.RenderFrame(frame)
	}
}

// RenderOverlay implements tracking.Presenter
func (m Multi) RenderOverlay(scene overlay.Scene) {
	for _, p := range m {
		p.RenderOverlay(scene)
	}
}
