package classifier

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-rangeaware/pkg/detection"
)

// Event is the record emitted for each tracked detection in a frame
type Event struct {
	Time       time.Time       `json:"time"`
	Session    string          `json:"session"`
	Frame      uint64          `json:"frame"`
	Label      string          `json:"label"`
	Confidence float64         `json:"confidence"`
	Center     detection.Point `json:"center"`
	Side       detection.Side  `json:"side"`
	Box        detection.Box   `json:"box"`
}

// FormatEvent renders the console line for an event:
//
//	[15:04:05] Detected person at center (150,150) -> LEFT
//
// Center coordinates are truncated to whole pixels.
func FormatEvent(e Event) string {
	return fmt.Sprintf("[%s] Detected %s at center (%d,%d) -> %s",
		e.Time.Format("15:04:05"), e.Label, int(e.Center.X), int(e.Center.Y), e.Side)
}

// FPS returns the instantaneous frame rate between two iterations, or 0
// when the clock did not advance.
func FPS(prev, now time.Time) float64 {
	dt := now.Sub(prev).Seconds()
	if dt <= 0 {
		return 0
	}
	return 1.0 / dt
}
