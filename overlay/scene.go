package overlay

import (
	"image"

	"huecam/detection"
)

// Label offsets relative to the pick point, and the padding around its text
const (
	labelOffsetX = 20
	labelOffsetY = -30
	labelFlipY   = 30
	labelPadding = 10
)

// Label is a resolved color name anchored at the pixel that was picked
type Label struct {
	Text   string
	Anchor image.Point
}

// Scene is everything drawn over one frame. It is rebuilt every tick and
// drawn from scratch; nothing carries over between frames.
type Scene struct {
	Regions  []detection.Region
	Label    *Label
	Smoothed *image.Point
	Status   string
}

// Empty reports whether drawing the scene would leave the frame untouched
func (s Scene) Empty() bool {
	return len(s.Regions) == 0 && s.Label == nil && s.Smoothed == nil && s.Status == ""
}

// PlaceLabel returns the background box for a label of textSize anchored at
// anchor. The box sits up and to the right of the anchor, is pushed back
// inside the right and left edges, and drops below the anchor when it would
// run off the top. The result always lies within bounds when it fits at all.
func PlaceLabel(anchor, textSize image.Point, bounds image.Rectangle) image.Rectangle {
	boxW := textSize.X + labelPadding
	boxH := textSize.Y + labelPadding

	// x is the left edge, y the bottom edge of the box
	x := anchor.X + labelOffsetX
	y := anchor.Y + labelOffsetY

	if x+boxW > bounds.Max.X {
		x = bounds.Max.X - boxW
	}
	if x < bounds.Min.X {
		x = bounds.Min.X
	}
	if y-boxH < bounds.Min.Y {
		y = anchor.Y + labelFlipY
	}
	if y > bounds.Max.Y {
		y = bounds.Max.Y
	}
	if y-boxH < bounds.Min.Y {
		y = bounds.Min.Y + boxH
	}

	return image.Rect(x, y-boxH, x+boxW, y)
}
