package detection

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Sample reads the pixel at (x, y). The frame's current extent is checked on
// every call, so a source that changed resolution mid-stream still yields
// ErrOutOfBounds rather than a bad read.
func Sample(frame gocv.Mat, x, y int) (PixelSample, error) {
	if frame.Empty() || x < 0 || y < 0 || x >= frame.Cols() || y >= frame.Rows() {
		return PixelSample{}, fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfBounds, x, y, frame.Cols(), frame.Rows())
	}

	bgr := frame.GetVecbAt(y, x)
	sample := PixelSample{
		B: bgr[0],
		G: bgr[1],
		R: bgr[2],
		X: x,
		Y: y,
	}
	sample.HSV = BGRToHSV(sample.B, sample.G, sample.R)
	return sample, nil
}

// BGRToHSV converts one pixel through OpenCV so the result rounds exactly the
// way the per-frame conversion in HSVFilter does.
func BGRToHSV(b, g, r uint8) HSV {
	px := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(b), float64(g), float64(r), 0), 1, 1, gocv.MatTypeCV8UC3)
	defer px.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(px, &hsv, gocv.ColorBGRToHSV)

	v := hsv.GetVecbAt(0, 0)
	return HSV{H: v[0], S: v[1], V: v[2]}
}

// DeriveRange widens the sample's hue by sensitivity on each side. Saturation
// and value are pinned to [50,255] so greys, near-black and near-white never
// match whatever hue they happen to carry.
func DeriveRange(sample PixelSample, sensitivity int) ColorRange {
	if sensitivity < 0 {
		sensitivity = 0
	}
	h := int(sample.HSV.H)

	lower := h - sensitivity
	if lower < 0 {
		lower = 0
	}
	upper := h + sensitivity
	if upper > MaxHue {
		upper = MaxHue
	}

	rng := ColorRange{
		Lower: HSV{H: uint8(lower), S: MinSatFloor, V: MinValFloor},
		Upper: HSV{H: uint8(upper), S: MaxSatOrVal, V: MaxSatOrVal},
	}
	debugMsg("SAMPLER", fmt.Sprintf("Sample rgb(%d,%d,%d) hsv%s -> %s", sample.R, sample.G, sample.B, sample.HSV, rng))
	return rng
}
