package detection

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Frames are 8-bit, 3-channel Mats in OpenCV's native BGR channel order.
// Every pixel read or written by this package follows that convention;
// RGB only appears in PixelSample, which is what gets shown to the user.

// Hue is stored the OpenCV way for 8-bit images: degrees / 2, so 0-179.
const (
	MaxHue      = 179
	MinSatFloor = 50
	MinValFloor = 50
	MaxSatOrVal = 255

	DefaultSensitivity = 15
	DefaultMinArea     = 1000.0
	KernelSize         = 5 // elliptical structuring element, KernelSize x KernelSize
)

// ErrOutOfBounds is returned when a pick coordinate lies outside the frame
var ErrOutOfBounds = errors.New("coordinate outside frame")

// Global debug function for detection package
var debugMsgFunc func(component, message string)

// SetDebugFunction allows main package to provide debug function
func SetDebugFunction(fn func(component, message string)) {
	debugMsgFunc = fn
}

// debugMsgVerboseFunc only prints when verbose debugging is on
var debugMsgVerboseFunc func(component, message string)

// SetDebugVerboseFunction allows main package to provide the verbose logger
func SetDebugVerboseFunction(fn func(component, message string)) {
	debugMsgVerboseFunc = fn
}

// debugMsg is a wrapper that handles nil checks
func debugMsg(component, message string) {
	if debugMsgFunc != nil {
		debugMsgFunc(component, message)
	}
}

func debugMsgVerbose(component, message string) {
	if debugMsgVerboseFunc != nil {
		debugMsgVerboseFunc(component, message)
	}
}

// HSV is a single color in OpenCV 8-bit HSV space
type HSV struct {
	H uint8
	S uint8
	V uint8
}

// Scalar returns the HSV triple as a gocv scalar for InRange
func (c HSV) Scalar() gocv.Scalar {
	return gocv.NewScalar(float64(c.H), float64(c.S), float64(c.V), 0)
}

func (c HSV) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.H, c.S, c.V)
}

// PixelSample is a color picked from a frame, immutable once created
type PixelSample struct {
	R, G, B uint8
	X, Y    int
	HSV     HSV
}

// ColorRange is the lower/upper bound pair used to threshold a frame
type ColorRange struct {
	Lower HSV
	Upper HSV
}

func (r ColorRange) String() string {
	return fmt.Sprintf("lower=%s upper=%s", r.Lower, r.Upper)
}

// Region is one tracked blob: its bounding box, contour area and center
type Region struct {
	Box      image.Rectangle
	Area     float64
	Centroid image.Point
}

// Result is the output of one filter pass. Mask is owned by the caller.
type Result struct {
	Mask    gocv.Mat
	Regions []Region
}

// Close releases the mask
func (r *Result) Close() {
	if r.Mask.Ptr() != nil {
		r.Mask.Close()
	}
}

// Filter turns a frame plus an active range into a cleaned mask and regions
type Filter interface {
	Apply(frame gocv.Mat, rng ColorRange) Result
	Close() error
}
