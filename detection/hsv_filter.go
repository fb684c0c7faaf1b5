package detection

import (
	"fmt"
	"image"
	"sort"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// HSVFilter implements Filter with OpenCV: HSV threshold, open then close
// with a 5x5 ellipse, external contours, area floor.
type HSVFilter struct {
	minArea float64
	kernel  gocv.Mat
	mu      sync.Mutex
}

// NewHSVFilter creates a filter that discards regions smaller than minArea
// mask pixels. A non-positive minArea falls back to DefaultMinArea.
func NewHSVFilter(minArea float64) *HSVFilter {
	if minArea <= 0 {
		minArea = DefaultMinArea
	}
	return &HSVFilter{
		minArea: minArea,
		kernel:  gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(KernelSize, KernelSize)),
	}
}

// MinArea returns the noise floor in mask pixels
func (f *HSVFilter) MinArea() float64 {
	return f.minArea
}

// Apply thresholds frame against rng and extracts regions. It never fails:
// an empty frame or an empty mask gives an empty region list.
func (f *HSVFilter) Apply(frame gocv.Mat, rng ColorRange) Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	start := time.Now()
	mask := gocv.NewMat()
	if frame.Empty() {
		return Result{Mask: mask}
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)

	gocv.InRangeWithScalar(hsv, rng.Lower.Scalar(), rng.Upper.Scalar(), &mask)

	// Opening first removes speckle; closing afterwards fills holes in what
	// survived without bringing the speckle back.
	gocv.MorphologyEx(mask, &mask, gocv.MorphOpen, f.kernel)
	gocv.MorphologyEx(mask, &mask, gocv.MorphClose, f.kernel)

	regions := f.extractRegions(mask)

	debugMsgVerbose("FILTER", fmt.Sprintf("%s: %d regions in %v", rng, len(regions), time.Since(start)))
	return Result{Mask: mask, Regions: regions}
}

// extractRegions finds external contours and keeps those at or above the
// area floor, largest first.
func (f *HSVFilter) extractRegions(mask gocv.Mat) []Region {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var regions []Region
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area < f.minArea {
			continue
		}

		box := gocv.BoundingRect(contour)
		regions = append(regions, Region{
			Box:      box,
			Area:     area,
			Centroid: image.Pt(box.Min.X+box.Dx()/2, box.Min.Y+box.Dy()/2),
		})
	}

	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Area > regions[j].Area
	})
	return regions
}

// Close releases the structuring element
func (f *HSVFilter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kernel.Close()
}
