package tracking

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"huecam/detection"
	"huecam/lookup"
	"huecam/overlay"
)

// Global debug function for tracking package
var debugMsgFunc func(component, message string)

// debugMsgVerboseFunc is set by main package for verbose logging only
var debugMsgVerboseFunc func(component, message string)

// SetDebugFunction allows main package to provide debug function
func SetDebugFunction(fn func(component, message string)) {
	debugMsgFunc = fn
}

// SetDebugVerboseFunction allows main package to provide the verbose debug logger
func SetDebugVerboseFunction(fn func(component, message string)) {
	debugMsgVerboseFunc = fn
}

func debugMsg(component, message string) {
	if debugMsgFunc != nil {
		debugMsgFunc(component, message)
	}
}

func debugMsgVerbose(component, message string) {
	if debugMsgVerboseFunc != nil {
		debugMsgVerboseFunc(component, message)
	}
}

// Coordinator owns the per-frame pipeline. Picks and toggles may come from
// any goroutine; Tick is driven by a single render loop.
type Coordinator struct {
	frames    FrameSource
	filter    detection.Filter
	lookups   Lookups
	presenter Presenter
	sink      EventSink
	recorder  Recorder
	settings  Settings

	mu       sync.Mutex
	mode     Mode
	rng      *detection.ColorRange
	label    *overlay.Label
	last     gocv.Mat // latest frame without overlay, for picks
	smoother *KalmanFilter

	// render rate for the status line
	fpsWindowStart time.Time
	fpsFrames      int
	fps            float64
}

// NewCoordinator wires the pipeline stages together. sink and recorder may be nil.
func NewCoordinator(frames FrameSource, filter detection.Filter, lookups Lookups, presenter Presenter, settings Settings) *Coordinator {
	if settings.Sensitivity < 0 {
		settings.Sensitivity = 0
	}
	return &Coordinator{
		frames:    frames,
		filter:    filter,
		lookups:   lookups,
		presenter: presenter,
		settings:  settings,
		mode:      ModeIdle,
		last:      gocv.NewMat(),
		smoother:  NewKalmanFilter(),
	}
}

// SetEventSink installs an optional event sink
func (c *Coordinator) SetEventSink(sink EventSink) {
	c.sink = sink
}

// SetRecorder installs an optional timing recorder
func (c *Coordinator) SetRecorder(rec Recorder) {
	c.recorder = rec
}

// Mode returns the current state
func (c *Coordinator) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// ActiveRange returns the color range being tracked, if any
func (c *Coordinator) ActiveRange() (detection.ColorRange, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rng == nil {
		return detection.ColorRange{}, false
	}
	return *c.rng, true
}

// Label returns the color label that Idle mode would show
func (c *Coordinator) Label() (overlay.Label, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.label == nil {
		return overlay.Label{}, false
	}
	return *c.label, true
}

// ToggleTracking switches tracking on or off and returns the new mode.
// Turning it on hides the color label; turning it off drops the range.
func (c *Coordinator) ToggleTracking() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.mode
	if c.mode.Tracking() {
		c.mode = ModeIdle
		c.rng = nil
		c.smoother.Reset()
	} else {
		c.mode = ModeTrackingEnabled
		c.label = nil
	}
	debugMsg("COORDINATOR", fmt.Sprintf("Mode %s -> %s", old, c.mode))
	return c.mode
}

// PickPixel handles a pick at (x, y) on the last displayed frame. While
// tracking it replaces the color range; otherwise it starts a name lookup.
// An out-of-bounds pick returns detection.ErrOutOfBounds and changes nothing.
func (c *Coordinator) PickPixel(x, y int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last.Empty() {
		return ErrNoFrame
	}
	sample, err := detection.Sample(c.last, x, y)
	if err != nil {
		debugMsg("COORDINATOR", fmt.Sprintf("Ignoring pick: %v", err))
		return err
	}

	if c.mode.Tracking() {
		rng := detection.DeriveRange(sample, c.settings.Sensitivity)
		c.rng = &rng
		c.mode = ModeTrackingArmed
		c.smoother.Reset()
		debugMsg("COORDINATOR", fmt.Sprintf("Tracking %s from pick (%d,%d) hsv=%s", rng, x, y, sample.HSV))
		return nil
	}

	rgb := lookup.RGB{R: sample.R, G: sample.G, B: sample.B}
	anchor := image.Pt(x, y)
	name, ok := c.lookups.LookupOrEnqueue(rgb, anchor)
	if !ok {
		debugMsg("COORDINATOR", fmt.Sprintf("Lookup pending for %s", rgb.Query()))
		return nil
	}
	c.applyResult(lookup.Result{Color: rgb, Name: name, Anchor: anchor})
	return nil
}

// applyResult must be called with mu held
func (c *Coordinator) applyResult(r lookup.Result) {
	c.label = &overlay.Label{Text: r.Label(), Anchor: r.Anchor}
	debugMsg("COORDINATOR", r.Label())
	if c.sink != nil {
		c.sink.ColorResolved(r)
	}
}

// Tick runs one render cycle: apply delivered lookups, take the latest frame,
// filter it when armed and present it. It returns false if no frame arrived
// within the read timeout.
func (c *Coordinator) Tick() bool {
	start := time.Now()
	c.drainResults()

	frame, ok := c.frames.Take(c.settings.ReadTimeout)
	if !ok {
		return false
	}

	canvas := frame.Mat.Clone()
	defer canvas.Close()

	c.mu.Lock()
	c.last.Close()
	c.last = frame.Mat
	mode := c.mode
	var rng detection.ColorRange
	if c.rng != nil {
		rng = *c.rng
	}
	c.mu.Unlock()

	scene := overlay.Scene{}
	if mode == ModeTrackingArmed {
		scene.Regions, scene.Smoothed = c.track(canvas, rng, frame.Timestamp)
	}

	c.mu.Lock()
	// Names are only shown outside tracking mode
	if c.mode == ModeIdle && c.label != nil {
		label := *c.label
		scene.Label = &label
	}
	c.mu.Unlock()

	c.updateFPS(start)
	if c.settings.StatusOverlay {
		scene.Status = fmt.Sprintf("%s | %.1f fps | %d regions", mode, c.fps, len(scene.Regions))
	}

	c.presenter.RenderFrame(canvas)
	c.presenter.RenderOverlay(scene)

	if c.recorder != nil {
		c.recorder.UpdateRender(time.Since(start))
	}
	return true
}

// drainResults applies every lookup result delivered since the last tick.
// The last one delivered wins the label.
func (c *Coordinator) drainResults() {
	results := c.lookups.Results()
	for {
		select {
		case r := <-results:
			c.mu.Lock()
			c.applyResult(r)
			c.mu.Unlock()
		default:
			return
		}
	}
}

// track runs the filter and smooths the primary centroid
func (c *Coordinator) track(frame gocv.Mat, rng detection.ColorRange, at time.Time) ([]detection.Region, *image.Point) {
	filterStart := time.Now()
	res := c.filter.Apply(frame, rng)
	res.Close()
	elapsed := time.Since(filterStart)

	if c.recorder != nil {
		c.recorder.UpdateFilter(elapsed, len(res.Regions))
	}
	if c.sink != nil {
		c.sink.RegionsTracked(rng, res.Regions)
	}
	debugMsgVerbose("COORDINATOR", fmt.Sprintf("Filter found %d regions in %v", len(res.Regions), elapsed))

	if !c.settings.Smoothing || len(res.Regions) == 0 {
		return res.Regions, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// The range may have been replaced while the filter ran
	if c.rng == nil || *c.rng != rng {
		return res.Regions, nil
	}
	primary := res.Regions[0].Centroid
	sx, sy := c.smoother.Update(float64(primary.X), float64(primary.Y), at)
	smoothed := image.Pt(int(sx+0.5), int(sy+0.5))
	return res.Regions, &smoothed
}

func (c *Coordinator) updateFPS(now time.Time) {
	if c.fpsWindowStart.IsZero() {
		c.fpsWindowStart = now
	}
	c.fpsFrames++
	if elapsed := now.Sub(c.fpsWindowStart); elapsed >= time.Second {
		c.fps = float64(c.fpsFrames) / elapsed.Seconds()
		c.fpsFrames = 0
		c.fpsWindowStart = now
	}
}

// Close releases the retained frame
func (c *Coordinator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last.Close()
}

// IsIgnorablePick reports whether a PickPixel error just means the pick had
// nothing to act on
func IsIgnorablePick(err error) bool {
	return errors.Is(err, detection.ErrOutOfBounds) || errors.Is(err, ErrNoFrame)
}
