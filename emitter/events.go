package emitter

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"huecam/detection"
	"huecam/lookup"
)

// ColorEvent is published when a picked color gets its name
type ColorEvent struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
	Name      string `json:"name"`
	Label     string `json:"label"`
	R         uint8  `json:"r"`
	G         uint8  `json:"g"`
	B         uint8  `json:"b"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

// HSVBound is one end of a color range
type HSVBound struct {
	H uint8 `json:"h"`
	S uint8 `json:"s"`
	V uint8 `json:"v"`
}

// RegionEntry is one tracked region
type RegionEntry struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Area      float64 `json:"area"`
	CentroidX int     `json:"centroid_x"`
	CentroidY int     `json:"centroid_y"`
}

// RegionsEvent is a snapshot of the regions matching the active range
type RegionsEvent struct {
	ID        string        `json:"id"`
	Timestamp string        `json:"timestamp"`
	Lower     HSVBound      `json:"lower"`
	Upper     HSVBound      `json:"upper"`
	Count     int           `json:"count"`
	Regions   []RegionEntry `json:"regions"`
}

func newColorEvent(r lookup.Result, at time.Time) ColorEvent {
	ev := ColorEvent{
		ID:        uuid.NewString(),
		Timestamp: at.UTC().Format(time.RFC3339),
		Name:      r.Name,
		Label:     r.Label(),
		R:         r.Color.R,
		G:         r.Color.G,
		B:         r.Color.B,
		X:         r.Anchor.X,
		Y:         r.Anchor.Y,
	}
	if r.RequestID != uuid.Nil {
		ev.RequestID = r.RequestID.String()
	}
	return ev
}

func newRegionsEvent(rng detection.ColorRange, regions []detection.Region, at time.Time) RegionsEvent {
	entries := make([]RegionEntry, 0, len(regions))
	for _, reg := range regions {
		entries = append(entries, RegionEntry{
			X:         reg.Box.Min.X,
			Y:         reg.Box.Min.Y,
			Width:     reg.Box.Dx(),
			Height:    reg.Box.Dy(),
			Area:      reg.Area,
			CentroidX: reg.Centroid.X,
			CentroidY: reg.Centroid.Y,
		})
	}
	return RegionsEvent{
		ID:        uuid.NewString(),
		Timestamp: at.UTC().Format(time.RFC3339),
		Lower:     HSVBound{H: rng.Lower.H, S: rng.Lower.S, V: rng.Lower.V},
		Upper:     HSVBound{H: rng.Upper.H, S: rng.Upper.S, V: rng.Upper.V},
		Count:     len(entries),
		Regions:   entries,
	}
}

// ToJSON serializes the event
func (e ColorEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ToJSON serializes the event
func (e RegionsEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
