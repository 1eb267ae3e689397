package classifier

import "gocv.io/x/gocv"

// Display shows annotated frames and reports key presses.
// *gocv.Window satisfies it.
type Display interface {
	IMShow(img gocv.Mat)
	WaitKey(delay int) int
	Close() error
}

// Headless is a Display that shows nothing and never reports a key.
type Headless struct{}

func (Headless) IMShow(gocv.Mat) {}

func (Headless) WaitKey(int) int { return -1 }

func (Headless) Close() error { return nil }

// Publisher receives every annotated frame along with its events.
// Implementations must not block the loop.
type Publisher interface {
	PublishFrame(frame gocv.Mat, fps float64, events []Event)
}
