package main

import (
	"log/slog"
	"sync"
	"time"

	"huecam/capture"
	"huecam/lookup"
)

const perfReportInterval = 15 * time.Second // Performance reporting interval

// PipelineStats collects timings from the capture loop and the render tick
type PipelineStats struct {
	mu             sync.Mutex
	captureCount   int64
	readErrors     int64
	renderCount    int64
	filterCount    int64
	regionTotal    int64
	lastReportTime time.Time

	// Timing measurements
	readTimeTotal   time.Duration
	renderTimeTotal time.Duration
	filterTimeTotal time.Duration
}

// StatsWindow is what PipelineStats measured since the previous snapshot
type StatsWindow struct {
	CaptureFPS float64
	RenderFPS  float64
	ReadErrors int64
	AvgRead    time.Duration
	AvgRender  time.Duration
	AvgFilter  time.Duration
	AvgRegions float64
}

// NewPipelineStats creates a new pipeline statistics tracker
func NewPipelineStats() *PipelineStats {
	return &PipelineStats{lastReportTime: time.Now()}
}

// UpdateCapture implements capture.Recorder
func (ps *PipelineStats) UpdateCapture(duration time.Duration) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.captureCount++
	ps.readTimeTotal += duration
}

// UpdateReadError implements capture.Recorder
func (ps *PipelineStats) UpdateReadError() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.readErrors++
}

// UpdateRender implements tracking.Recorder
func (ps *PipelineStats) UpdateRender(duration time.Duration) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.renderCount++
	ps.renderTimeTotal += duration
}

// UpdateFilter implements tracking.Recorder
func (ps *PipelineStats) UpdateFilter(duration time.Duration, regions int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.filterCount++
	ps.filterTimeTotal += duration
	ps.regionTotal += int64(regions)
}

// Snapshot returns the current window and starts a new one
func (ps *PipelineStats) Snapshot() StatsWindow {
	return ps.snapshotAt(time.Now())
}

func (ps *PipelineStats) snapshotAt(now time.Time) StatsWindow {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	timeWindow := now.Sub(ps.lastReportTime).Seconds()
	if timeWindow <= 0 {
		timeWindow = 1.0 // Prevent division by zero
	}

	w := StatsWindow{
		CaptureFPS: float64(ps.captureCount) / timeWindow,
		RenderFPS:  float64(ps.renderCount) / timeWindow,
		ReadErrors: ps.readErrors,
	}
	if ps.captureCount > 0 {
		w.AvgRead = ps.readTimeTotal / time.Duration(ps.captureCount)
	}
	if ps.renderCount > 0 {
		w.AvgRender = ps.renderTimeTotal / time.Duration(ps.renderCount)
	}
	if ps.filterCount > 0 {
		w.AvgFilter = ps.filterTimeTotal / time.Duration(ps.filterCount)
		w.AvgRegions = float64(ps.regionTotal) / float64(ps.filterCount)
	}

	// Reset counters but keep timestamps
	ps.captureCount = 0
	ps.readErrors = 0
	ps.renderCount = 0
	ps.filterCount = 0
	ps.regionTotal = 0
	ps.readTimeTotal = 0
	ps.renderTimeTotal = 0
	ps.filterTimeTotal = 0
	ps.lastReportTime = now

	return w
}

// Report logs one performance line
func (ps *PipelineStats) Report(logger *slog.Logger, buf capture.BufferStats, lk lookup.Stats) {
	w := ps.Snapshot()
	logger.Info("pipeline performance",
		"capture_fps", round1(w.CaptureFPS),
		"render_fps", round1(w.RenderFPS),
		"read_errors", w.ReadErrors,
		"avg_read", w.AvgRead,
		"avg_render", w.AvgRender,
		"avg_filter", w.AvgFilter,
		"avg_regions", round1(w.AvgRegions),
		"frames_dropped", buf.Dropped,
		"lookup_hits", lk.Hits,
		"lookup_calls", lk.Calls,
		"lookup_failures", lk.Failures,
		"lookup_queued", lk.Queued,
	)
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
