package emitter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"huecam/detection"
	"huecam/lookup"
)

const (
	// DefaultTopicPrefix roots every topic
	DefaultTopicPrefix = "huecam"
	// DefaultRegionInterval throttles region snapshots
	DefaultRegionInterval = time.Second

	outboxDepth = 64
)

// Publisher sends one payload to a topic
type Publisher interface {
	Publish(topic string, qos byte, payload []byte) error
}

// Options configure an Emitter
type Options struct {
	TopicPrefix    string
	QoS            byte
	RegionInterval time.Duration
}

type message struct {
	topic   string
	payload []byte
}

// Emitter turns pipeline events into JSON messages. The render tick calls it,
// so it only queues; Run does the publishing. When the outbox is full new
// messages are dropped.
type Emitter struct {
	pub  Publisher
	opts Options
	now  func() time.Time

	outbox chan message

	mu          sync.Mutex
	lastRegions time.Time
	published   map[string]uint64
	dropped     uint64
	errors      uint64
}

// New creates an emitter over pub
func New(pub Publisher, opts Options) *Emitter {
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = DefaultTopicPrefix
	}
	if opts.RegionInterval <= 0 {
		opts.RegionInterval = DefaultRegionInterval
	}
	return &Emitter{
		pub:       pub,
		opts:      opts,
		now:       time.Now,
		outbox:    make(chan message, outboxDepth),
		published: make(map[string]uint64),
	}
}

// ColorTopic is where resolved colors go
func (e *Emitter) ColorTopic() string {
	return e.opts.TopicPrefix + "/color"
}

// RegionsTopic is where region snapshots go
func (e *Emitter) RegionsTopic() string {
	return e.opts.TopicPrefix + "/regions"
}

// ColorResolved implements tracking.EventSink
func (e *Emitter) ColorResolved(r lookup.Result) {
	payload, err := newColorEvent(r, e.now()).ToJSON()
	if err != nil {
		e.countError()
		slog.Warn("failed to marshal color event", "error", err)
		return
	}
	e.enqueue(e.ColorTopic(), payload)
}

// RegionsTracked implements tracking.EventSink. At most one snapshot goes
// out per region interval.
func (e *Emitter) RegionsTracked(rng detection.ColorRange, regions []detection.Region) {
	now := e.now()
	e.mu.Lock()
	if !e.lastRegions.IsZero() && now.Sub(e.lastRegions) < e.opts.RegionInterval {
		e.mu.Unlock()
		return
	}
	e.lastRegions = now
	e.mu.Unlock()

	payload, err := newRegionsEvent(rng, regions, now).ToJSON()
	if err != nil {
		e.countError()
		slog.Warn("failed to marshal regions event", "error", err)
		return
	}
	e.enqueue(e.RegionsTopic(), payload)
}

func (e *Emitter) enqueue(topic string, payload []byte) {
	select {
	case e.outbox <- message{topic: topic, payload: payload}:
	default:
		e.mu.Lock()
		e.dropped++
		e.mu.Unlock()
		slog.Debug("emitter outbox full, dropping event", "topic", topic)
	}
}

// Run publishes queued events until ctx is done
func (e *Emitter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-e.outbox:
			if err := e.pub.Publish(msg.topic, e.opts.QoS, msg.payload); err != nil {
				e.countError()
				slog.Warn("event publish failed", "topic", msg.topic, "error", err)
				continue
			}
			e.mu.Lock()
			e.published[msg.topic]++
			e.mu.Unlock()
			slog.Debug("event published", "topic", msg.topic, "qos", e.opts.QoS, "size", len(msg.payload))
		}
	}
}

func (e *Emitter) countError() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
}

// Stats contains emitter statistics
type Stats struct {
	Published map[string]uint64
	Dropped   uint64
	Errors    uint64
}

// Stats returns emitter statistics
func (e *Emitter) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	published := make(map[string]uint64, len(e.published))
	for k, v := range e.published {
		published[k] = v
	}
	return Stats{Published: published, Dropped: e.dropped, Errors: e.errors}
}

func (s Stats) String() string {
	var total uint64
	for _, n := range s.Published {
		total += n
	}
	return fmt.Sprintf("published=%d dropped=%d errors=%d", total, s.Dropped, s.Errors)
}
