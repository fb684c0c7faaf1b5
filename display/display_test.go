package display

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"huecam/detection"
	"huecam/overlay"
	"huecam/tracking"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    Command
		wantErr bool
	}{
		{"pick 10 20", Command{Kind: CommandPick, X: 10, Y: 20}, false},
		{"  P 3 4 ", Command{Kind: CommandPick, X: 3, Y: 4}, false},
		{"toggle", Command{Kind: CommandToggle}, false},
		{"t", Command{Kind: CommandToggle}, false},
		{"QUIT", Command{Kind: CommandQuit}, false},
		{"q", Command{Kind: CommandQuit}, false},
		{"help", Command{Kind: CommandHelp}, false},
		{"pick 10", Command{}, true},
		{"pick x y", Command{}, true},
		{"jump", Command{}, true},
		{"", Command{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadCommand)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type fakeControls struct {
	picks   []image.Point
	toggles int
	pickErr error
}

func (f *fakeControls) PickPixel(x, y int) error {
	f.picks = append(f.picks, image.Pt(x, y))
	return f.pickErr
}

func (f *fakeControls) ToggleTracking() tracking.Mode {
	f.toggles++
	if f.toggles%2 == 1 {
		return tracking.ModeTrackingEnabled
	}
	return tracking.ModeIdle
}

func TestConsoleRun(t *testing.T) {
	ctrl := &fakeControls{}
	in := strings.NewReader("pick 1 2\nbogus\n\ntoggle\np 5 6\nquit\npick 9 9\n")
	var out bytes.Buffer

	quitCalled := false
	err := NewConsole(in, &out, ctrl).Run(context.Background(), func() { quitCalled = true })
	require.NoError(t, err)

	assert.True(t, quitCalled)
	assert.Equal(t, []image.Point{{1, 2}, {5, 6}}, ctrl.picks)
	assert.Equal(t, 1, ctrl.toggles)
	assert.Contains(t, out.String(), "unknown command")
	assert.Contains(t, out.String(), "mode TRACKING_ENABLED")
}

func TestConsoleReportsIgnoredPick(t *testing.T) {
	ctrl := &fakeControls{pickErr: detection.ErrOutOfBounds}
	var out bytes.Buffer

	err := NewConsole(strings.NewReader("pick 999 999\n"), &out, ctrl).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "ignored")
}

func TestConsoleStopsOnCancelledContext(t *testing.T) {
	ctrl := &fakeControls{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewConsole(strings.NewReader("toggle\n"), &bytes.Buffer{}, ctrl).Run(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, ctrl.toggles)
}

func TestKeyAction(t *testing.T) {
	assert.Equal(t, KeyNone, keyAction(-1))
	assert.Equal(t, KeyToggle, keyAction('t'))
	assert.Equal(t, KeyToggle, keyAction('T'))
	assert.Equal(t, KeyQuit, keyAction('q'))
	assert.Equal(t, KeyQuit, keyAction(27))
	assert.Equal(t, KeyQuit, keyAction(0x100000|'q'))
	assert.Equal(t, KeyNone, keyAction('x'))
}

func TestHourDir(t *testing.T) {
	assert.Equal(t, "2025-01-01_12AM", hourDir(time.Date(2025, 1, 1, 0, 30, 0, 0, time.UTC)))
	assert.Equal(t, "2025-01-01_03PM", hourDir(time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-01-01_12PM", hourDir(time.Date(2025, 1, 1, 12, 5, 0, 0, time.UTC)))
	assert.Equal(t, "2025-01-01_11AM", hourDir(time.Date(2025, 1, 1, 11, 59, 0, 0, time.UTC)))
}

type countingPresenter struct {
	frames, overlays int
}

func (c *countingPresenter) RenderFrame(gocv.Mat)        { c.frames++ }
func (c *countingPresenter) RenderOverlay(overlay.Scene) { c.overlays++ }

func TestMultiFansOut(t *testing.T) {
	a, b := &countingPresenter{}, &countingPresenter{}
	m := Multi{a, b}

	frame := gocv.NewMat()
	defer frame.Close()
	m.RenderFrame(frame)
	m.RenderOverlay(overlay.Scene{})

	assert.Equal(t, 1, a.frames)
	assert.Equal(t, 1, b.overlays)
}

func TestRecorderSavesEveryNthFrame(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(dir, 2, overlay.NewRenderer())
	require.NoError(t, err)
	defer rec.Close()
	rec.now = func() time.Time { return time.Date(2025, 6, 1, 15, 4, 5, 0, time.UTC) }

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 80, 120, 0), 48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	for i := 0; i < 4; i++ {
		rec.RenderFrame(frame)
		rec.RenderOverlay(overlay.Scene{Status: "IDLE"})
		// distinct timestamps so files do not overwrite each other
		base := rec.now()
		rec.now = func() time.Time { return base.Add(time.Second) }
	}

	saved, failed := rec.Saved()
	assert.Equal(t, uint64(2), saved)
	assert.Zero(t, failed)

	entries, err := os.ReadDir(filepath.Join(dir, "2025-06-01_03PM"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
