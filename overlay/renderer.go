package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// debugMsgVerboseFunc is a function that will be set by main package for verbose logging only
var debugMsgVerboseFunc func(component, message string)

// SetDebugVerboseFunction allows main package to provide the verbose debug logger
func SetDebugVerboseFunction(fn func(component, message string)) {
	debugMsgVerboseFunc = fn
}

func debugMsgVerbose(component, message string) {
	if debugMsgVerboseFunc != nil {
		debugMsgVerboseFunc(component, message)
	}
}

var (
	regionGreen  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	smoothYellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	labelBlack   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	labelWhite   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Renderer draws a Scene onto a frame with gocv
type Renderer struct {
	font      gocv.HersheyFont
	fontScale float64
	thickness int
}

// NewRenderer creates a renderer with the default label font
func NewRenderer() *Renderer {
	return &Renderer{
		font:      gocv.FontHersheySimplex,
		fontScale: 0.5,
		thickness: 1,
	}
}

// TextSize measures text in the renderer's font
func (r *Renderer) TextSize(text string) image.Point {
	return gocv.GetTextSize(text, r.font, r.fontScale, r.thickness)
}

// Draw renders scene onto img in place
func (r *Renderer) Draw(img *gocv.Mat, scene Scene) {
	if img.Empty() || scene.Empty() {
		return
	}
	bounds := image.Rect(0, 0, img.Cols(), img.Rows())

	for _, region := range scene.Regions {
		gocv.Rectangle(img, region.Box, regionGreen, 2)
		gocv.Circle(img, region.Centroid, 3, regionGreen, -1)
	}

	if scene.Smoothed != nil {
		r.drawCrosshair(img, *scene.Smoothed)
	}

	if scene.Label != nil && scene.Label.Text != "" {
		r.drawLabel(img, *scene.Label, bounds)
	}

	if scene.Status != "" {
		r.drawStatus(img, scene.Status)
	}

	debugMsgVerbose("OVERLAY", fmt.Sprintf("Drew %d regions, label=%v, smoothed=%v",
		len(scene.Regions), scene.Label != nil, scene.Smoothed != nil))
}

// drawLabel draws white text on a filled black box placed by PlaceLabel
func (r *Renderer) drawLabel(img *gocv.Mat, label Label, bounds image.Rectangle) {
	size := r.TextSize(label.Text)
	box := PlaceLabel(label.Anchor, size, bounds)

	gocv.Rectangle(img, box, labelBlack, -1)
	// PutText anchors at the text baseline
	origin := image.Pt(box.Min.X+labelPadding/2, box.Min.Y+labelPadding/2+size.Y)
	gocv.PutText(img, label.Text, origin, r.font, r.fontScale, labelWhite, r.thickness)
}

func (r *Renderer) drawCrosshair(img *gocv.Mat, center image.Point) {
	size := 12
	gap := 3

	gocv.Line(img, image.Pt(center.X-size, center.Y), image.Pt(center.X-gap, center.Y), smoothYellow, 2)
	gocv.Line(img, image.Pt(center.X+gap, center.Y), image.Pt(center.X+size, center.Y), smoothYellow, 2)
	gocv.Line(img, image.Pt(center.X, center.Y-size), image.Pt(center.X, center.Y-gap), smoothYellow, 2)
	gocv.Line(img, image.Pt(center.X, center.Y+gap), image.Pt(center.X, center.Y+size), smoothYellow, 2)
	gocv.Circle(img, center, 2, smoothYellow, -1)
}

// drawStatus puts the status line in the top-left corner
func (r *Renderer) drawStatus(img *gocv.Mat, status string) {
	size := r.TextSize(status)
	box := image.Rect(0, 0, size.X+labelPadding, size.Y+labelPadding)
	gocv.Rectangle(img, box, labelBlack, -1)
	gocv.PutText(img, status, image.Pt(labelPadding/2, labelPadding/2+size.Y), r.font, r.fontScale, labelWhite, r.thickness)
}
