// Package capture opens video sources (webcams, files, network streams)
// and reads frames from them.
package capture

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

var (
	// ErrUnavailable is returned when a source cannot be opened.
	ErrUnavailable = errors.New("capture source unavailable")

	// ErrNoFrame is returned when an open source stops delivering frames.
	ErrNoFrame = errors.New("failed to read frame")
)

// Kind identifies what a device string refers to
type Kind int

const (
	KindUnknown Kind = iota
	KindCamera       // Local camera by index, e.g. "0"
	KindFile         // Video or image file on disk
	KindStream       // Network stream (rtsp, http)
)

func (k Kind) String() string {
	switch k {
	case KindCamera:
		return "camera"
	case KindFile:
		return "file"
	case KindStream:
		return "stream"
	default:
		return "unknown"
	}
}

// DeviceKind classifies a device string.
func DeviceKind(device string) Kind {
	device = strings.TrimSpace(device)
	if device == "" {
		return KindUnknown
	}
	if n, err := strconv.Atoi(device); err == nil && n >= 0 {
		return KindCamera
	}
	lower := strings.ToLower(device)
	for _, scheme := range []string{"rtsp://", "rtsps://", "http://", "https://", "udp://", "tcp://"} {
		if strings.HasPrefix(lower, scheme) {
			return KindStream
		}
	}
	return KindFile
}

// Source delivers frames to the detection loop
type Source interface {
	// Read fills dst with the next frame. It returns ErrNoFrame when the
	// source has no more frames to give.
	Read(dst *gocv.Mat) error

	// Close releases the underlying device
	Close() error
}

// Camera is a Source backed by an OpenCV VideoCapture
type Camera struct {
	device string
	kind   Kind
	vc     *gocv.VideoCapture

	mu     sync.Mutex
	closed bool
}

// Open opens device, which may be a camera index, a file path or a stream URL.
func Open(device string) (*Camera, error) {
	kind := DeviceKind(device)
	if kind == KindUnknown {
		return nil, fmt.Errorf("%w: empty device", ErrUnavailable)
	}

	var (
		vc  *gocv.VideoCapture
		err error
	)
	if kind == KindCamera {
		id, _ := strconv.Atoi(strings.TrimSpace(device))
		vc, err = gocv.OpenVideoCapture(id)
	} else {
		vc, err = gocv.OpenVideoCapture(device)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, device)
	}

	return &Camera{device: device, kind: kind, vc: vc}, nil
}

// Device returns the device string the camera was opened with.
func (c *Camera) Device() string {
	return c.device
}

// Kind returns what kind of device the camera reads from.
func (c *Camera) Kind() Kind {
	return c.kind
}

// Read grabs the next frame into dst
func (c *Camera) Read(dst *gocv.Mat) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("%w: source closed", ErrNoFrame)
	}
	if ok := c.vc.Read(dst); !ok || dst.Empty() {
		return ErrNoFrame
	}
	if dst.Cols() <= 0 || dst.Rows() <= 0 {
		return fmt.Errorf("%w: zero-sized frame", ErrNoFrame)
	}
	return nil
}

// Close releases the device. Safe to call more than once.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.vc.Close()
}
