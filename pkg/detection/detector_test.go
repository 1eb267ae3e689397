package detection

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBox_Center(t *testing.T) {
	tests := []struct {
		name string
		box  Box
		want Point
	}{
		{
			name: "person on the left",
			box:  Box{X1: 100, Y1: 100, X2: 200, Y2: 200},
			want: Point{X: 150, Y: 150},
		},
		{
			name: "phone on the right",
			box:  Box{X1: 500, Y1: 100, X2: 600, Y2: 200},
			want: Point{X: 550, Y: 150},
		},
		{
			name: "fractional center",
			box:  Box{X1: 0, Y1: 0, X2: 3, Y2: 5},
			want: Point{X: 1.5, Y: 2.5},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.box.Center(); got != tc.want {
				t.Errorf("Center: got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestBox_CenterInsideBox(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		x1 := rng.Float64() * 1000
		y1 := rng.Float64() * 1000
		b := Box{X1: x1, Y1: y1, X2: x1 + 0.001 + rng.Float64()*500, Y2: y1 + 0.001 + rng.Float64()*500}

		c := b.Center()
		if c.X < b.X1 || c.X > b.X2 || c.Y < b.Y1 || c.Y > b.Y2 {
			t.Fatalf("center %+v outside box %+v", c, b)
		}
	}
}

func TestClassifySide(t *testing.T) {
	tests := []struct {
		name    string
		x       float64
		midline float64
		want    Side
	}{
		{"left of midline", 150, 320, Left},
		{"right of midline", 550, 320, Right},
		{"exactly on midline", 320, 320, Center},
		{"just left", 319.999, 320, Left},
		{"just right", 320.001, 320, Right},
		{"odd width midline", 320, 320.5, Left},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySide(tc.x, tc.midline); got != tc.want {
				t.Errorf("ClassifySide(%v, %v): got %s, want %s", tc.x, tc.midline, got, tc.want)
			}
		})
	}
}

func TestDetection_Side(t *testing.T) {
	tests := []struct {
		name string
		det  Detection
		want Side
	}{
		{
			name: "person left",
			det:  Detection{Label: "person", Confidence: 0.9, Box: Box{X1: 100, Y1: 100, X2: 200, Y2: 200}},
			want: Left,
		},
		{
			name: "cell phone right",
			det:  Detection{Label: "cell phone", Confidence: 0.6, Box: Box{X1: 500, Y1: 100, X2: 600, Y2: 200}},
			want: Right,
		},
		{
			name: "straddling midline",
			det:  Detection{Label: "person", Confidence: 0.5, Box: Box{X1: 300, Y1: 0, X2: 340, Y2: 10}},
			want: Center,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.det.Side(640); got != tc.want {
				t.Errorf("Side: got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestSide_String(t *testing.T) {
	for side, want := range map[Side]string{Left: "LEFT", Right: "RIGHT", Center: "CENTER"} {
		if side.String() != want {
			t.Errorf("String: got %q, want %q", side.String(), want)
		}
		text, err := side.MarshalText()
		if err != nil || string(text) != want {
			t.Errorf("MarshalText: got %q, %v", text, err)
		}
	}
}

func TestIsTracked(t *testing.T) {
	tests := []struct {
		label string
		want  bool
	}{
		{"person", true},
		{"Person", true},
		{"PERSON", true},
		{"cell phone", true},
		{"Cell Phone", true},
		{"cellphone", true},
		{"mobile phone", true},
		{"cell_phone", true},
		{"dog", false},
		{"phone", false},
		{"persons", false},
		{" person", false},
		{"", false},
	}

	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			if got := IsTracked(tc.label); got != tc.want {
				t.Errorf("IsTracked(%q): got %v, want %v", tc.label, got, tc.want)
			}
		})
	}
}

func TestFilterTracked(t *testing.T) {
	in := []Detection{
		{Label: "dog", Confidence: 0.99, Box: Box{X1: 0, Y1: 0, X2: 10, Y2: 10}},
		{Label: "person", Confidence: 0.31, Box: Box{X1: 1, Y1: 1, X2: 10, Y2: 10}},
		{Label: "laptop", Confidence: 0.95, Box: Box{X1: 2, Y1: 2, X2: 10, Y2: 10}},
		{Label: "Cell Phone", Confidence: 0.4, Box: Box{X1: 3, Y1: 3, X2: 10, Y2: 10}},
	}

	got := FilterTracked(in)
	want := []Detection{in[1], in[3]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FilterTracked mismatch (-want +got):\n%s", diff)
	}

	if got := FilterTracked(nil); len(got) != 0 {
		t.Errorf("FilterTracked(nil): got %d detections", len(got))
	}
}
