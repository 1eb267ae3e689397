// Package classifier runs the per-frame detection loop: capture a frame,
// detect objects, keep tracked classes, classify each against the frame's
// midline, annotate, log and display.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/teslashibe/go-rangeaware/internal/log"
	"github.com/teslashibe/go-rangeaware/pkg/capture"
	"github.com/teslashibe/go-rangeaware/pkg/detection"
	"github.com/teslashibe/go-rangeaware/pkg/overlay"
	"gocv.io/x/gocv"
)

// DefaultQuitKey ends the session when pressed in the display window.
const DefaultQuitKey = 'q'

// StopReason records why Run returned
type StopReason int

const (
	StopNone StopReason = iota
	StopQuit            // Quit key pressed
	StopNoFrame         // Source stopped delivering frames
	StopCanceled        // Context canceled
)

func (r StopReason) String() string {
	switch r {
	case StopQuit:
		return "quit"
	case StopNoFrame:
		return "no_frame"
	case StopCanceled:
		return "canceled"
	default:
		return "none"
	}
}

// Stats summarizes a session
type Stats struct {
	Frames     uint64
	Detections uint64
	BySide     map[detection.Side]uint64
	LastFPS    float64
	Reason     StopReason
}

// Options configures a Loop. Source and Detector are required.
type Options struct {
	Source    capture.Source
	Detector  detection.Detector
	Display   Display           // Defaults to Headless
	Renderer  *overlay.Renderer // Defaults to overlay.DefaultStyle
	Publisher Publisher         // Optional
	Out       io.Writer         // Detection lines; defaults to os.Stdout
	QuitKey   rune              // Defaults to DefaultQuitKey
	Session   string
	Now       func() time.Time // Defaults to time.Now
}

// Loop is the single-threaded frame classifier. All capture, inference,
// drawing and display calls happen on the goroutine that calls Run.
type Loop struct {
	source    capture.Source
	detector  detection.Detector
	display   Display
	renderer  *overlay.Renderer
	publisher Publisher
	out       io.Writer
	quitKey   int
	session   string
	now       func() time.Time
	logger    *slog.Logger
}

// New validates opts and builds a Loop.
func New(opts Options) (*Loop, error) {
	if opts.Source == nil {
		return nil, errors.New("classifier: source is required")
	}
	if opts.Detector == nil {
		return nil, errors.New("classifier: detector is required")
	}

	l := &Loop{
		source:    opts.Source,
		detector:  opts.Detector,
		display:   opts.Display,
		renderer:  opts.Renderer,
		publisher: opts.Publisher,
		out:       opts.Out,
		quitKey:   int(opts.QuitKey),
		session:   opts.Session,
		now:       opts.Now,
		logger:    log.With("session", opts.Session),
	}
	if l.display == nil {
		l.display = Headless{}
	}
	if l.renderer == nil {
		l.renderer = overlay.NewRenderer(overlay.DefaultStyle())
	}
	if l.out == nil {
		l.out = os.Stdout
	}
	if l.quitKey == 0 {
		l.quitKey = DefaultQuitKey
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l, nil
}

// Run processes frames until the quit key is pressed, the source runs dry,
// or ctx is canceled. Cancellation is checked once per iteration.
// A source that runs dry ends the session normally with Reason StopNoFrame;
// any other source error is returned.
func (l *Loop) Run(ctx context.Context) (Stats, error) {
	stats := Stats{BySide: make(map[detection.Side]uint64)}

	frame := gocv.NewMat()
	defer frame.Close()

	prev := l.now()
	for {
		if ctx.Err() != nil {
			stats.Reason = StopCanceled
			return stats, nil
		}

		if err := l.source.Read(&frame); err != nil {
			if errors.Is(err, capture.ErrNoFrame) {
				l.logger.Error("failed to read frame from camera", "error", err, "frames", stats.Frames)
				stats.Reason = StopNoFrame
				return stats, nil
			}
			return stats, fmt.Errorf("read frame: %w", err)
		}
		stats.Frames++

		events := l.processFrame(&frame, stats.Frames)
		stats.Detections += uint64(len(events))
		for _, e := range events {
			stats.BySide[e.Side]++
		}

		l.renderer.DrawMidline(&frame)

		now := l.now()
		fps := FPS(prev, now)
		prev = now
		stats.LastFPS = fps
		l.renderer.DrawFPS(&frame, fps)

		if l.publisher != nil {
			l.publisher.PublishFrame(frame, fps, events)
		}

		l.display.IMShow(frame)
		if key := l.display.WaitKey(1); key >= 0 && key&0xFF == l.quitKey {
			stats.Reason = StopQuit
			return stats, nil
		}
	}
}

// processFrame runs detection on frame, annotates every tracked detection
// and writes one console line per detection.
func (l *Loop) processFrame(frame *gocv.Mat, seq uint64) []Event {
	dets, err := l.detector.Detect(*frame)
	if err != nil {
		l.logger.Warn("detection failed", "frame", seq, "error", err)
		return nil
	}

	tracked := detection.FilterTracked(dets)
	if len(tracked) == 0 {
		return nil
	}

	midline := detection.Midline(frame.Cols())
	ts := l.now()
	events := make([]Event, 0, len(tracked))
	for _, d := range tracked {
		center := d.Center()
		side := detection.ClassifySide(center.X, midline)

		l.renderer.DrawDetection(frame, d, side)

		e := Event{
			Time:       ts,
			Session:    l.session,
			Frame:      seq,
			Label:      d.Label,
			Confidence: d.Confidence,
			Center:     center,
			Side:       side,
			Box:        d.Box,
		}
		fmt.Fprintln(l.out, FormatEvent(e))
		events = append(events, e)
	}
	return events
}
