package lookup

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Unknown is what a failed lookup resolves to. It is cached like any name.
const Unknown = "Unknown"

// resultsDepth bounds the inbox between the resolver and the render tick
const resultsDepth = 16

// Global debug function for lookup package
var debugMsgFunc func(component, message string)

// SetDebugFunction allows main package to provide debug function
func SetDebugFunction(fn func(component, message string)) {
	debugMsgFunc = fn
}

func debugMsg(component, message string) {
	if debugMsgFunc != nil {
		debugMsgFunc(component, message)
	}
}

// Result is a resolved lookup on its way back to the presentation layer
type Result struct {
	RequestID uuid.UUID
	Color     RGB
	Name      string
	Anchor    image.Point
}

// Label renders the user-facing text for the result
func (r Result) Label() string {
	return FormatLabel(r.Name, r.Color)
}

// FormatLabel renders "<name> (R:r, G:g, B:b)"
func FormatLabel(name string, c RGB) string {
	return fmt.Sprintf("%s (R:%d, G:%d, B:%d)", name, c.R, c.G, c.B)
}

// Stats are lookup counters
type Stats struct {
	Hits     uint64
	Misses   uint64
	Calls    uint64
	Failures uint64
	Queued   int
	Cached   int
}

// Service is the lookup cache plus its request queue and resolver. Clicks
// call LookupOrEnqueue; one goroutine runs Run and drains the queue in FIFO
// order, one network call at a time. Results come back through Results(),
// never by touching presentation state directly.
type Service struct {
	namer   Namer
	cache   *Cache
	queue   *requestQueue
	results chan Result

	pendingMu sync.Mutex
	pending   map[RGB]struct{}

	hits     atomic.Uint64
	misses   atomic.Uint64
	calls    atomic.Uint64
	failures atomic.Uint64
}

// NewService creates a service resolving names through namer
func NewService(namer Namer) *Service {
	return &Service{
		namer:   namer,
		cache:   NewCache(),
		queue:   newRequestQueue(),
		results: make(chan Result, resultsDepth),
		pending: make(map[RGB]struct{}),
	}
}

// Cache exposes the underlying cache (read-only use)
func (s *Service) Cache() *Cache {
	return s.cache
}

// LookupOrEnqueue returns the cached name for c if there is one. Otherwise it
// queues a request, unless one for c is already queued or in flight, and
// returns false. It never blocks.
func (s *Service) LookupOrEnqueue(c RGB, anchor image.Point) (string, bool) {
	if name, ok := s.cache.Get(c); ok {
		s.hits.Add(1)
		return name, true
	}
	s.misses.Add(1)

	s.pendingMu.Lock()
	if _, inFlight := s.pending[c]; inFlight {
		s.pendingMu.Unlock()
		debugMsg("LOOKUP", fmt.Sprintf("%s already pending, not queued again", c.Query()))
		return "", false
	}
	s.pending[c] = struct{}{}
	s.pendingMu.Unlock()

	req := Request{
		ID:       uuid.New(),
		Color:    c,
		Anchor:   anchor,
		Enqueued: time.Now(),
	}
	s.queue.push(req)
	debugMsg("LOOKUP", fmt.Sprintf("Queued %s as %s", c.Query(), req.ID))
	return "", false
}

// Results is the single-consumer inbox drained by the render tick
func (s *Service) Results() <-chan Result {
	return s.results
}

// Run drains the request queue until ctx is done. A lookup in progress when
// ctx is cancelled is aborted and left uncached.
func (s *Service) Run(ctx context.Context) {
	debugMsg("LOOKUP", "Resolver started")
	for {
		req, ok := s.queue.pop(ctx)
		if !ok {
			debugMsg("LOOKUP", fmt.Sprintf("Resolver stopped (%d requests left queued)", s.queue.len()))
			return
		}

		name, err := s.resolve(ctx, req.Color)
		s.clearPending(req.Color)
		if err != nil {
			// only cancellation gets here
			continue
		}

		s.deliver(Result{
			RequestID: req.ID,
			Color:     req.Color,
			Name:      name,
			Anchor:    req.Anchor,
		})
		debugMsg("LOOKUP", fmt.Sprintf("Resolved %s -> %q in %v", req.Color.Query(), name, time.Since(req.Enqueued)))
	}
}

// Resolve returns the name for c, going to the network only on a cache miss.
// Failures resolve to Unknown and are cached, so they are not retried.
func (s *Service) Resolve(ctx context.Context, c RGB) string {
	name, err := s.resolve(ctx, c)
	if err != nil {
		return Unknown
	}
	return name
}

func (s *Service) resolve(ctx context.Context, c RGB) (string, error) {
	if name, ok := s.cache.Get(c); ok {
		return name, nil
	}

	s.calls.Add(1)
	name, err := s.namer.Name(ctx, c)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		s.failures.Add(1)
		debugMsg("LOOKUP_WARN", fmt.Sprintf("Lookup for %s failed, caching %q: %v", c.Query(), Unknown, err))
		name = Unknown
	}
	return s.cache.Put(c, name), nil
}

func (s *Service) clearPending(c RGB) {
	s.pendingMu.Lock()
	delete(s.pending, c)
	s.pendingMu.Unlock()
}

// deliver hands r to the inbox, dropping the oldest undelivered result if the
// render side has fallen behind. Only the resolver goroutine sends.
func (s *Service) deliver(r Result) {
	select {
	case s.results <- r:
		return
	default:
	}

	select {
	case old := <-s.results:
		debugMsg("LOOKUP_WARN", fmt.Sprintf("Results inbox full, dropped %s", old.Color.Query()))
	default:
	}

	select {
	case s.results <- r:
	default:
	}
}

// Stats returns the lookup counters
func (s *Service) Stats() Stats {
	return Stats{
		Hits:     s.hits.Load(),
		Misses:   s.misses.Load(),
		Calls:    s.calls.Load(),
		Failures: s.failures.Load(),
		Queued:   s.queue.len(),
		Cached:   s.cache.Len(),
	}
}
