package capture

import (
	"sync"
	"sync/atomic"
	"time"
)

// FrameBuffer is a single-slot, latest-wins handoff between the capture loop
// and the render tick. Publishing over an unconsumed frame closes and drops
// the old one, so memory stays bounded however far apart the two rates are.
type FrameBuffer struct {
	slot chan *Frame
	mu   sync.Mutex // serializes publishers so drop-then-put is atomic

	published atomic.Uint64
	taken     atomic.Uint64
	dropped   atomic.Uint64
}

// BufferStats is a snapshot of buffer counters
type BufferStats struct {
	Published uint64
	Taken     uint64
	Dropped   uint64
}

// NewFrameBuffer creates an empty buffer
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{slot: make(chan *Frame, 1)}
}

// Publish stores frame, replacing any frame nobody has taken yet. Never blocks.
func (b *FrameBuffer) Publish(frame *Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case old := <-b.slot:
		old.Close()
		b.dropped.Add(1)
	default:
	}

	// The slot is empty and only publishers fill it, so this cannot block
	b.slot <- frame
	b.published.Add(1)
}

// Take waits up to timeout for a frame. The caller owns the returned frame.
func (b *FrameBuffer) Take(timeout time.Duration) (*Frame, bool) {
	if timeout <= 0 {
		select {
		case f := <-b.slot:
			b.taken.Add(1)
			return f, true
		default:
			return nil, false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case f := <-b.slot:
		b.taken.Add(1)
		return f, true
	case <-timer.C:
		return nil, false
	}
}

// Len reports how many frames are buffered: 0 or 1
func (b *FrameBuffer) Len() int {
	return len(b.slot)
}

// Stats returns the buffer counters
func (b *FrameBuffer) Stats() BufferStats {
	return BufferStats{
		Published: b.published.Load(),
		Taken:     b.taken.Load(),
		Dropped:   b.dropped.Load(),
	}
}

// Drain closes any frame still buffered. Used at shutdown.
func (b *FrameBuffer) Drain() {
	b.mu.Lock()
	defer b.mu.Unlock()
	select {
	case f := <-b.slot:
		f.Close()
	default:
	}
}
