package capture

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

var (
	// ErrDeviceUnavailable means the camera could not be opened. Fatal at startup.
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	// ErrRead means a single frame read failed. The capture loop skips the cycle.
	ErrRead = errors.New("frame read failed")
)

// Global debug function for capture package
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

// Frame is one captured BGR image. Whoever holds the Frame owns the Mat and
// must Close it; the buffer closes frames it drops.
type Frame struct {
	Mat       gocv.Mat
	Seq       uint64
	Timestamp time.Time
}

// Close releases the underlying Mat
func (f *Frame) Close() {
	if f != nil && f.Mat.Ptr() != nil {
		f.Mat.Close()
	}
}

// Source supplies raw frames. Dimensions are fixed once Open succeeds.
type Source interface {
	Open() error
	Read(dst *gocv.Mat) error
	Dimensions() (width, height int)
	Close() error
}

// DeviceSource reads from a local camera index ("0") or a stream URL
type DeviceSource struct {
	device string
	cap    *gocv.VideoCapture
	width  int
	height int
	mu     sync.Mutex
}

// NewDeviceSource creates a source for a camera index or URL
func NewDeviceSource(device string) *DeviceSource {
	return &DeviceSource{device: device}
}

// Open opens the device and records its frame size
func (d *DeviceSource) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var target interface{} = d.device
	if idx, err := strconv.Atoi(d.device); err == nil {
		target = idx
	}

	vc, err := gocv.OpenVideoCapture(target)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, d.device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("%w: %s", ErrDeviceUnavailable, d.device)
	}

	// Keep the driver's own queue short so reads return the newest frame
	vc.Set(gocv.VideoCaptureBufferSize, 1)

	d.cap = vc
	d.width = int(vc.Get(gocv.VideoCaptureFrameWidth))
	d.height = int(vc.Get(gocv.VideoCaptureFrameHeight))
	debugMsg("CAPTURE", fmt.Sprintf("Opened %s (%dx%d)", d.device, d.width, d.height))
	return nil
}

// Read decodes the next frame into dst
func (d *DeviceSource) Read(dst *gocv.Mat) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cap == nil {
		return fmt.Errorf("%w: device not open", ErrRead)
	}
	if ok := d.cap.Read(dst); !ok {
		return fmt.Errorf("%w: %s", ErrRead, d.device)
	}
	return validFrame(*dst)
}

// Dimensions returns the frame size reported at Open
func (d *DeviceSource) Dimensions() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}

// Close releases the camera handle
func (d *DeviceSource) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cap == nil {
		return nil
	}
	err := d.cap.Close()
	d.cap = nil
	debugMsg("CAPTURE", fmt.Sprintf("Released %s", d.device))
	return err
}

// validFrame rejects empty reads and anything that is not 8-bit BGR
func validFrame(m gocv.Mat) error {
	if m.Empty() {
		return fmt.Errorf("%w: empty frame", ErrRead)
	}
	if m.Type() != gocv.MatTypeCV8UC3 || m.Channels() != 3 {
		return fmt.Errorf("%w: unexpected frame type %v", ErrRead, m.Type())
	}
	return nil
}
