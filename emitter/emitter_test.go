package emitter

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huecam/detection"
	"huecam/lookup"
)

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(topic string, qos byte, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{topic, qos, payload})
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func (f *fakePublisher) first() published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msgs[0]
}

func runEmitter(t *testing.T, e *Emitter) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

var fixedTime = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func TestColorEventPayload(t *testing.T) {
	pub := &fakePublisher{}
	e := New(pub, Options{TopicPrefix: "lab", QoS: 1})
	e.now = func() time.Time { return fixedTime }
	runEmitter(t, e)

	reqID := uuid.New()
	e.ColorResolved(lookup.Result{
		RequestID: reqID,
		Color:     lookup.RGB{R: 255},
		Name:      "Red",
		Anchor:    image.Pt(10, 10),
	})

	require.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 5*time.Millisecond)
	msg := pub.first()
	assert.Equal(t, "lab/color", msg.topic)
	assert.Equal(t, byte(1), msg.qos)

	var ev ColorEvent
	require.NoError(t, json.Unmarshal(msg.payload, &ev))
	_, err := uuid.Parse(ev.ID)
	assert.NoError(t, err)
	assert.Equal(t, "2025-03-04T05:06:07Z", ev.Timestamp)
	assert.Equal(t, reqID.String(), ev.RequestID)
	assert.Equal(t, "Red (R:255, G:0, B:0)", ev.Label)
	assert.Equal(t, 10, ev.X)
}

func TestRegionsEventPayload(t *testing.T) {
	rng := detection.ColorRange{
		Lower: detection.HSV{H: 85, S: 50, V: 50},
		Upper: detection.HSV{H: 115, S: 255, V: 255},
	}
	regions := []detection.Region{
		{Box: image.Rect(100, 60, 140, 100), Area: 1600, Centroid: image.Pt(120, 80)},
	}

	ev := newRegionsEvent(rng, regions, fixedTime)
	assert.Equal(t, 1, ev.Count)
	assert.Equal(t, HSVBound{85, 50, 50}, ev.Lower)
	assert.Equal(t, RegionEntry{X: 100, Y: 60, Width: 40, Height: 40, Area: 1600, CentroidX: 120, CentroidY: 80}, ev.Regions[0])

	empty := newRegionsEvent(rng, nil, fixedTime)
	raw, err := empty.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"regions":[]`)
}

func TestRegionsAreThrottled(t *testing.T) {
	pub := &fakePublisher{}
	e := New(pub, Options{RegionInterval: time.Second})
	clock := fixedTime
	e.now = func() time.Time { return clock }

	rng := detection.ColorRange{}
	e.RegionsTracked(rng, nil)
	clock = clock.Add(300 * time.Millisecond)
	e.RegionsTracked(rng, nil)
	clock = clock.Add(800 * time.Millisecond)
	e.RegionsTracked(rng, nil)

	assert.Len(t, e.outbox, 2)
	msg := <-e.outbox
	assert.Equal(t, "huecam/regions", msg.topic)
}

func TestFullOutboxDrops(t *testing.T) {
	e := New(&fakePublisher{}, Options{})
	for i := 0; i < outboxDepth+5; i++ {
		e.ColorResolved(lookup.Result{Name: "Red"})
	}
	assert.Equal(t, uint64(5), e.Stats().Dropped)
}

func TestPublishErrorsAreCounted(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	e := New(pub, Options{})
	runEmitter(t, e)

	e.ColorResolved(lookup.Result{Name: "Red"})
	require.Eventually(t, func() bool { return e.Stats().Errors == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, e.Stats().Published)
}

func TestNewMQTTPublisherBrokerURL(t *testing.T) {
	assert.Equal(t, "tcp://localhost:1883", NewMQTTPublisher("localhost:1883", "id").broker)
	assert.Equal(t, "ssl://broker:8883", NewMQTTPublisher("ssl://broker:8883", "id").broker)

	err := NewMQTTPublisher("localhost:1883", "id").Publish("t", 0, nil)
	assert.Error(t, err)
}
