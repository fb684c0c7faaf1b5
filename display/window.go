package display

import (
	"fmt"

	"gocv.io/x/gocv"

	"huecam/overlay"
	"huecam/tracking"
)

// KeyAction is what a key press in the window asks for
type KeyAction int

const (
	KeyNone KeyAction = iota
	KeyToggle
	KeyQuit
)

const keyEscape = 27

// keyAction maps a WaitKey code to an action
func keyAction(key int) KeyAction {
	if key < 0 {
		return KeyNone
	}
	switch key & 0xff {
	case 't', 'T':
		return KeyToggle
	case 'q', 'Q', keyEscape:
		return KeyQuit
	default:
		return KeyNone
	}
}

// Window shows frames with their overlay in a highgui window. It must be
// used from the goroutine that created it.
type Window struct {
	win      *gocv.Window
	renderer *overlay.Renderer
	canvas   gocv.Mat
	shown    uint64
}

// NewWindow opens a window with the given title
func NewWindow(title string, renderer *overlay.Renderer) *Window {
	return &Window{
		win:      gocv.NewWindow(title),
		renderer: renderer,
		canvas:   gocv.NewMat(),
	}
}

// RenderFrame implements tracking.Presenter
func (w *Window) RenderFrame(frame gocv.Mat) {
	frame.CopyTo(&w.canvas)
}

// RenderOverlay implements tracking.Presenter
func (w *Window) RenderOverlay(scene overlay.Scene) {
	if w.canvas.Empty() {
		return
	}
	w.renderer.Draw(&w.canvas, scene)
	w.win.IMShow(w.canvas)
	w.shown++
}

// Poll pumps window events and applies a pending key press to ctrl. It
// returns true when the user asked to quit.
func (w *Window) Poll(ctrl Controls) bool {
	switch keyAction(w.win.WaitKey(1)) {
	case KeyToggle:
		mode := ctrl.ToggleTracking()
		debugMsg("WINDOW", fmt.Sprintf("Tracking toggled, now %s", mode))
	case KeyQuit:
		debugMsg("WINDOW", "Quit requested")
		return true
	}
	return !w.win.IsOpen()
}

// Close closes the window
func (w *Window) Close() error {
	w.canvas.Close()
	return w.win.Close()
}

var _ tracking.Presenter = (*Window)(nil)
