package display

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"

	"huecam/overlay"
	"huecam/tracking"
)

// Recorder saves every Nth frame, overlay included, as a JPEG under
// <dir>/<YYYY-MM-DD_HHAM|PM>/
type Recorder struct {
	dir      string
	every    int
	renderer *overlay.Renderer
	now      func() time.Time

	canvas  gocv.Mat
	frames  uint64
	pending bool
	saved   uint64
	failed  uint64
}

// NewRecorder creates a recorder writing to dir. every < 1 means every frame.
func NewRecorder(dir string, every int, renderer *overlay.Renderer) (*Recorder, error) {
	if dir == "" {
		return nil, fmt.Errorf("recorder needs a directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create JPEG directory '%s': %w", dir, err)
	}
	if every < 1 {
		every = 1
	}
	return &Recorder{
		dir:      dir,
		every:    every,
		renderer: renderer,
		now:      time.Now,
		canvas:   gocv.NewMat(),
	}, nil
}

// RenderFrame implements tracking.Presenter
func (r *Recorder) RenderFrame(frame gocv.Mat) {
	r.frames++
	r.pending = r.frames%uint64(r.every) == 0
	if r.pending {
		frame.CopyTo(&r.canvas)
	}
}

// RenderOverlay implements tracking.Presenter
func (r *Recorder) RenderOverlay(scene overlay.Scene) {
	if !r.pending || r.canvas.Empty() {
		return
	}
	r.pending = false
	r.renderer.Draw(&r.canvas, scene)
	if r.saveJpegFrame(r.canvas, "post-overlay", len(scene.Regions)) {
		r.saved++
	} else {
		r.failed++
	}
}

// Saved returns how many frames were written and how many failed
func (r *Recorder) Saved() (saved, failed uint64) {
	return r.saved, r.failed
}

// hourDir names the subdirectory for t: 2025-01-01_03PM format
func hourDir(t time.Time) string {
	hour := t.Hour()
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	return fmt.Sprintf("%s_%02d%s", t.Format("2006-01-02"), hour12, ampm)
}

// saveJpegFrame writes frame with a timestamped name inside the hour directory
func (r *Recorder) saveJpegFrame(frame gocv.Mat, prefix string, regionCount int) bool {
	now := r.now()
	subdir := filepath.Join(r.dir, hourDir(now))
	if err := os.MkdirAll(subdir, 0755); err != nil {
		debugMsg("JPEG_ERROR", fmt.Sprintf("Failed to create subdirectory %s: %v", subdir, err))
		return false
	}

	filename := fmt.Sprintf("%s_%s_regions_%d.jpg", now.Format("20060102_150405.000"), prefix, regionCount)
	path := filepath.Join(subdir, filename)
	if !gocv.IMWrite(path, frame) {
		debugMsg("JPEG_ERROR", fmt.Sprintf("Failed to save %s frame: %s", prefix, filename))
		return false
	}
	return true
}

// Close releases the recorder's buffer
func (r *Recorder) Close() error {
	return r.canvas.Close()
}

var _ tracking.Presenter = (*Recorder)(nil)
