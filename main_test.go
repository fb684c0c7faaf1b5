package main

import (
	"bytes"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huecam/capture"
	"huecam/config"
	"huecam/lookup"
	"huecam/tracking"
)

func newFlagSet(t *testing.T, args ...string) *flag.FlagSet {
	t.Helper()
	fs := flag.NewFlagSet("huecam", flag.ContinueOnError)
	fs.String("config", "", "")
	fs.Bool("debug", false, "")
	registerConfigFlags(fs, config.Defaults())
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestResolveConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huecam.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sensitivity: 20\nrender_interval_ms: 33\nsmoothing: false\n"), 0644))

	fs := newFlagSet(t, "-sensitivity=25", "-debug")
	cfg, err := resolveConfig(fs, path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Sensitivity, "explicit flag beats file")
	assert.Equal(t, 33, cfg.RenderInterval, "file beats default")
	assert.False(t, cfg.Smoothing)
	assert.Equal(t, 5*time.Second, cfg.LookupTimeout, "default kept")
}

func TestResolveConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := resolveConfig(newFlagSet(t), "")
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)
}

func TestResolveConfigRejectsInvalidFlag(t *testing.T) {
	_, err := resolveConfig(newFlagSet(t, "-frame-queue-depth=4"), "")
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = resolveConfig(newFlagSet(t, "-render-interval-ms=0"), "")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestDebugLoggerLevels(t *testing.T) {
	var out bytes.Buffer
	dl := NewDebugLogger(&out, false, false)

	dl.debugMsg("LOOKUP", "queued rgb(1,2,3)")
	dl.debugMsg("LOOKUP_WARN", "lookup failed")
	dl.debugMsgVerbose("SAMPLER", "per-frame detail")

	text := out.String()
	assert.NotContains(t, text, "queued", "debug messages hidden without -debug")
	assert.Contains(t, text, "level=WARN")
	assert.Contains(t, text, "component=LOOKUP_WARN")
	assert.NotContains(t, text, "per-frame")
	assert.Equal(t, uint64(1), dl.Counts()["LOOKUP"])
}

func TestDebugLoggerVerbose(t *testing.T) {
	var out bytes.Buffer
	dl := NewDebugLogger(&out, false, true)

	dl.debugMsgVerbose("FILTER", "3 regions")
	dl.debugMsg("CAPTURE_ERROR", "device gone")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "level=DEBUG")
	assert.Contains(t, lines[0], "component=FILTER")
	assert.Contains(t, lines[1], "level=ERROR")
}

func TestPipelineStatsWindow(t *testing.T) {
	ps := NewPipelineStats()
	start := ps.lastReportTime

	for i := 0; i < 20; i++ {
		ps.UpdateCapture(4 * time.Millisecond)
	}
	ps.UpdateReadError()
	for i := 0; i < 10; i++ {
		ps.UpdateRender(2 * time.Millisecond)
	}
	ps.UpdateFilter(6*time.Millisecond, 2)
	ps.UpdateFilter(2*time.Millisecond, 1)

	w := ps.snapshotAt(start.Add(2 * time.Second))
	assert.InDelta(t, 10, w.CaptureFPS, 0.001)
	assert.InDelta(t, 5, w.RenderFPS, 0.001)
	assert.Equal(t, int64(1), w.ReadErrors)
	assert.Equal(t, 4*time.Millisecond, w.AvgRead)
	assert.Equal(t, 2*time.Millisecond, w.AvgRender)
	assert.Equal(t, 4*time.Millisecond, w.AvgFilter)
	assert.InDelta(t, 1.5, w.AvgRegions, 0.001)

	// counters start over
	next := ps.snapshotAt(start.Add(3 * time.Second))
	assert.Zero(t, next.CaptureFPS)
	assert.Zero(t, next.ReadErrors)
}

func TestPipelineStatsReport(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, nil))

	ps := NewPipelineStats()
	ps.UpdateCapture(time.Millisecond)
	ps.Report(logger, capture.BufferStats{Dropped: 7}, lookup.Stats{Calls: 3})

	assert.Contains(t, out.String(), "pipeline performance")
	assert.Contains(t, out.String(), "frames_dropped=7")
	assert.Contains(t, out.String(), "lookup_calls=3")
}

var (
	_ capture.Recorder  = (*PipelineStats)(nil)
	_ tracking.Recorder = (*PipelineStats)(nil)
)
