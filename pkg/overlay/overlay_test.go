package overlay

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/teslashibe/go-rangeaware/pkg/detection"
	"gocv.io/x/gocv"
)

func TestLabelText(t *testing.T) {
	tests := []struct {
		name  string
		label string
		side  detection.Side
		conf  float64
		want  string
	}{
		{"person left", "person", detection.Left, 0.876, "person LEFT 0.88"},
		{"phone right", "cell phone", detection.Right, 0.3, "cell phone RIGHT 0.30"},
		{"center", "person", detection.Center, 1, "person CENTER 1.00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, LabelText(tc.label, tc.side, tc.conf))
		})
	}
}

func TestLabelOrigin(t *testing.T) {
	assert.Equal(t, image.Pt(100, 94), LabelOrigin(100, 100))
	assert.Equal(t, image.Pt(5, 20), LabelOrigin(5, 10), "labels near the top edge are pushed down")
	assert.Equal(t, image.Pt(0, 20), LabelOrigin(0, 26))
	assert.Equal(t, image.Pt(0, 21), LabelOrigin(0, 27))
}

func TestFPSText(t *testing.T) {
	assert.Equal(t, "FPS: 0.0", FPSText(0))
	assert.Equal(t, "FPS: 29.9", FPSText(29.94))
}

func TestRectAndPixelTruncate(t *testing.T) {
	b := detection.Box{X1: 10.9, Y1: 20.5, X2: 30.1, Y2: 40.99}
	assert.Equal(t, image.Rect(10, 20, 30, 40), Rect(b))
	assert.Equal(t, image.Pt(20, 30), Pixel(b.Center()))
}

func TestRenderer_DrawsOnFrame(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	r := NewRenderer(DefaultStyle())
	d := detection.Detection{
		Label:      "person",
		Confidence: 0.9,
		Box:        detection.Box{X1: 100, Y1: 100, X2: 200, Y2: 200},
	}
	r.DrawDetection(&frame, d, d.Side(frame.Cols()))
	r.DrawMidline(&frame)
	r.DrawFPS(&frame, 30)

	// Midline pixel is red in BGR.
	px := frame.GetVecbAt(240, 320)
	assert.Equal(t, uint8(255), px[2])

	// Box edge is green.
	edge := frame.GetVecbAt(150, 100)
	assert.Equal(t, uint8(255), edge[1])
}
