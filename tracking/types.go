package tracking

import (
	"errors"
	"image"
	"time"

	"gocv.io/x/gocv"

	"huecam/capture"
	"huecam/detection"
	"huecam/lookup"
	"huecam/overlay"
)

// ErrNoFrame means a pick arrived before any frame was displayed
var ErrNoFrame = errors.New("no frame to sample yet")

// Mode is the coordinator state
type Mode int

const (
	// ModeIdle shows plain video; picks resolve color names
	ModeIdle Mode = iota
	// ModeTrackingEnabled waits for the first pick to set a color range
	ModeTrackingEnabled
	// ModeTrackingArmed filters every frame against the active range
	ModeTrackingArmed
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "IDLE"
	case ModeTrackingEnabled:
		return "TRACKING_ENABLED"
	case ModeTrackingArmed:
		return "TRACKING_ARMED"
	default:
		return "UNKNOWN"
	}
}

// Tracking reports whether tracking is switched on, armed or not
func (m Mode) Tracking() bool {
	return m == ModeTrackingEnabled || m == ModeTrackingArmed
}

// Presenter receives one complete picture per tick: RenderFrame with the
// frame, then RenderOverlay with what to draw over it. The frame is only
// valid until RenderOverlay returns.
type Presenter interface {
	RenderFrame(frame gocv.Mat)
	RenderOverlay(scene overlay.Scene)
}

// EventSink is told about resolved colors and tracked regions
type EventSink interface {
	ColorResolved(r lookup.Result)
	RegionsTracked(rng detection.ColorRange, regions []detection.Region)
}

// Lookups is the part of the lookup service the coordinator drives
type Lookups interface {
	LookupOrEnqueue(c lookup.RGB, anchor image.Point) (string, bool)
	Results() <-chan lookup.Result
}

// FrameSource hands out the latest captured frame
type FrameSource interface {
	Take(timeout time.Duration) (*capture.Frame, bool)
}

// Recorder receives per-tick timings
type Recorder interface {
	UpdateRender(d time.Duration)
	UpdateFilter(d time.Duration, regions int)
}

// Settings tune the coordinator
type Settings struct {
	Sensitivity   int
	ReadTimeout   time.Duration
	Smoothing     bool
	StatusOverlay bool
}

// DefaultSettings returns the stock tuning
func DefaultSettings() Settings {
	return Settings{
		Sensitivity: detection.DefaultSensitivity,
		ReadTimeout: 10 * time.Millisecond,
		Smoothing:   true,
	}
}
