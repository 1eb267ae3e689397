// Package overlay draws detection annotations onto frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/teslashibe/go-rangeaware/pkg/detection"
	"gocv.io/x/gocv"
)

// Style holds colors and sizes used for annotation
type Style struct {
	BoxColor       color.RGBA
	BoxThickness   int
	CenterColor    color.RGBA
	CenterRadius   int
	LabelColor     color.RGBA
	LabelScale     float64
	LabelThickness int
	MidlineColor   color.RGBA
	FPSColor       color.RGBA
	FPSScale       float64
	FPSOrigin      image.Point
	Font           gocv.HersheyFont
}

// DefaultStyle returns green boxes, blue centers, a red midline and a yellow FPS readout.
func DefaultStyle() Style {
	return Style{
		BoxColor:       color.RGBA{0, 255, 0, 0},
		BoxThickness:   2,
		CenterColor:    color.RGBA{0, 0, 255, 0},
		CenterRadius:   4,
		LabelColor:     color.RGBA{0, 255, 0, 0},
		LabelScale:     0.6,
		LabelThickness: 2,
		MidlineColor:   color.RGBA{255, 0, 0, 0},
		FPSColor:       color.RGBA{255, 255, 0, 0},
		FPSScale:       0.7,
		FPSOrigin:      image.Pt(10, 25),
		Font:           gocv.FontHersheySimplex,
	}
}

// minLabelY keeps labels of boxes touching the top edge on screen.
const minLabelY = 20

// LabelText formats the text drawn above a detection's box.
func LabelText(label string, side detection.Side, confidence float64) string {
	return fmt.Sprintf("%s %s %.2f", label, side, confidence)
}

// LabelOrigin returns the baseline origin for a label above a box whose
// top-left corner is (x1, y1).
func LabelOrigin(x1, y1 int) image.Point {
	return image.Pt(x1, max(minLabelY, y1-6))
}

// FPSText formats the frame-rate readout.
func FPSText(fps float64) string {
	return fmt.Sprintf("FPS: %.1f", fps)
}

// Rect converts a box to integer pixels, truncating toward zero.
func Rect(b detection.Box) image.Rectangle {
	return image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
}

// Pixel converts a point to integer pixels, truncating toward zero.
func Pixel(p detection.Point) image.Point {
	return image.Pt(int(p.X), int(p.Y))
}

// Renderer draws annotations with a fixed style
type Renderer struct {
	style Style
}

// NewRenderer creates a renderer using style.
func NewRenderer(style Style) *Renderer {
	return &Renderer{style: style}
}

// DrawDetection draws the box, center marker and label of one detection.
func (r *Renderer) DrawDetection(frame *gocv.Mat, d detection.Detection, side detection.Side) {
	s := r.style
	rect := Rect(d.Box)

	gocv.Rectangle(frame, rect, s.BoxColor, s.BoxThickness)
	gocv.Circle(frame, Pixel(d.Center()), s.CenterRadius, s.CenterColor, -1)
	gocv.PutText(frame, LabelText(d.Label, side, d.Confidence), LabelOrigin(rect.Min.X, rect.Min.Y),
		s.Font, s.LabelScale, s.LabelColor, s.LabelThickness)
}

// DrawMidline draws a one pixel vertical line at the frame's midline.
func (r *Renderer) DrawMidline(frame *gocv.Mat) {
	x := int(detection.Midline(frame.Cols()))
	gocv.Line(frame, image.Pt(x, 0), image.Pt(x, frame.Rows()), r.style.MidlineColor, 1)
}

// DrawFPS draws the frame-rate readout in the top-left corner.
func (r *Renderer) DrawFPS(frame *gocv.Mat, fps float64) {
	s := r.style
	gocv.PutText(frame, FPSText(fps), s.FPSOrigin, s.Font, s.FPSScale, s.FPSColor, 2)
}
