package lookup

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Request is a pending lookup: the color plus where its label should appear
type Request struct {
	ID       uuid.UUID
	Color    RGB
	Anchor   image.Point
	Enqueued time.Time
}

// requestQueue is an unbounded FIFO with many producers and one consumer.
// Push never blocks, so a click handler can always enqueue.
type requestQueue struct {
	mu     sync.Mutex
	items  []Request
	notify chan struct{}
}

func newRequestQueue() *requestQueue {
	return &requestQueue{notify: make(chan struct{}, 1)}
}

func (q *requestQueue) push(r Request) {
	q.mu.Lock()
	q.items = append(q.items, r)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// pop blocks until a request is available or ctx is done
func (q *requestQueue) pop(ctx context.Context) (Request, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			r := q.items[0]
			q.items[0] = Request{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return r, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Request{}, false
		case <-q.notify:
		}
	}
}

func (q *requestQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
