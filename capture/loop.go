package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"
)

// DefaultYield is how long the capture loop sleeps after each iteration
const DefaultYield = 10 * time.Millisecond

// Recorder receives per-read timings; PipelineStats in main implements it
type Recorder interface {
	UpdateCapture(d time.Duration)
	UpdateReadError()
}

// LoopOptions tunes the capture loop
type LoopOptions struct {
	Yield    time.Duration
	Recorder Recorder
}

// Loop reads frames from src and publishes them to buf until ctx is done.
// Read errors skip the cycle; nothing but cancellation ends the loop. The
// loop only notices cancellation between reads, so a blocked read finishes
// first.
func Loop(ctx context.Context, src Source, buf *FrameBuffer, opts LoopOptions) {
	yield := opts.Yield
	if yield <= 0 {
		yield = DefaultYield
	}

	var seq uint64
	var readErrors uint64

	for {
		select {
		case <-ctx.Done():
			debugMsg("CAPTURE", fmt.Sprintf("Capture loop stopped after %d frames (%d read errors)", seq, readErrors))
			return
		default:
		}

		readStart := time.Now()
		img := gocv.NewMat()
		if err := src.Read(&img); err != nil {
			img.Close()
			readErrors++
			if opts.Recorder != nil {
				opts.Recorder.UpdateReadError()
			}
			if !errors.Is(err, ErrRead) {
				err = fmt.Errorf("%w: %v", ErrRead, err)
			}
			// Log the first failure of a streak and then every 100th
			if readErrors == 1 || readErrors%100 == 0 {
				debugMsg("CAPTURE_WARN", fmt.Sprintf("%v (total %d)", err, readErrors))
			}
			sleep(ctx, yield)
			continue
		}

		if opts.Recorder != nil {
			opts.Recorder.UpdateCapture(time.Since(readStart))
		}

		seq++
		buf.Publish(&Frame{
			Mat:       img,
			Seq:       seq,
			Timestamp: time.Now(),
		})

		sleep(ctx, yield)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
