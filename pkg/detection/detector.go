// Package detection provides object detection and the left/right
// classification of detections against a frame's vertical midline.
package detection

import (
	"errors"
	"strings"

	"gocv.io/x/gocv"
)

var (
	// ErrModelNotFound is returned when the model weights file does not exist.
	ErrModelNotFound = errors.New("model file not found")

	// ErrEmptyFrame is returned when Detect is handed an empty frame.
	ErrEmptyFrame = errors.New("empty frame")
)

// Point is a position in frame pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is an axis-aligned bounding box in frame pixel coordinates.
// A valid box has X1 < X2 and Y1 < Y2.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Center returns the midpoint of the box.
func (b Box) Center() Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// Valid reports whether the box has positive width and height.
func (b Box) Valid() bool {
	return b.X1 < b.X2 && b.Y1 < b.Y2
}

// Detection is a single object reported by a detector
type Detection struct {
	Label      string  // Class name as reported by the model
	ClassID    int     // COCO class ID
	Confidence float64 // Detection confidence (0-1)
	Box        Box
}

// Center returns the center point of the detection's box
func (d Detection) Center() Point {
	return d.Box.Center()
}

// Side classifies the detection's center against the midline of a frame
// frameWidth pixels wide.
func (d Detection) Side(frameWidth int) Side {
	return ClassifySide(d.Center().X, Midline(frameWidth))
}

// Side is the horizontal position of a point relative to the midline.
type Side int

const (
	Center Side = iota
	Left
	Right
)

// String returns the upper-case name used in overlays and logs.
func (s Side) String() string {
	switch s {
	case Left:
		return "LEFT"
	case Right:
		return "RIGHT"
	default:
		return "CENTER"
	}
}

// MarshalText implements encoding.TextMarshaler so Side encodes as its name.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Midline returns the x coordinate of the vertical line splitting a frame.
func Midline(frameWidth int) float64 {
	return float64(frameWidth) / 2
}

// ClassifySide returns Left when x is strictly left of the midline, Right
// when strictly right, and Center only on an exact tie.
func ClassifySide(x, midline float64) Side {
	switch {
	case x < midline:
		return Left
	case x > midline:
		return Right
	default:
		return Center
	}
}

// trackedLabels are the lower-cased class names we keep. The aliases cover
// naming differences between model exports.
var trackedLabels = map[string]bool{
	"person":       true,
	"cell phone":   true,
	"cellphone":    true,
	"mobile phone": true,
	"cell_phone":   true,
}

// IsTracked reports whether label (case-insensitive) is a tracked class.
func IsTracked(label string) bool {
	return trackedLabels[strings.ToLower(label)]
}

// FilterTracked returns the detections with tracked labels, preserving order.
// Confidence plays no part; thresholding happens in the detector.
func FilterTracked(dets []Detection) []Detection {
	filtered := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if IsTracked(d.Label) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// Detector is the interface for object detection backends
type Detector interface {
	// Detect finds objects in the frame. Boxes are in frame pixel coordinates.
	Detect(frame gocv.Mat) ([]Detection, error)

	// Close releases resources
	Close() error
}
