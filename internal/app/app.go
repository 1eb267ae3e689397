// Package app wires capture, detection, display and the dashboard into a
// single detection session.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-rangeaware/internal/config"
	"github.com/teslashibe/go-rangeaware/internal/log"
	"github.com/teslashibe/go-rangeaware/pkg/capture"
	"github.com/teslashibe/go-rangeaware/pkg/classifier"
	"github.com/teslashibe/go-rangeaware/pkg/detection"
	"github.com/teslashibe/go-rangeaware/pkg/web"
	"gocv.io/x/gocv"
)

// dashboardStopTimeout bounds the wait for the dashboard after the loop ends.
// It sits above the server's own shutdown timeout.
const dashboardStopTimeout = 6 * time.Second

// Deps builds the external resources a session needs. Tests swap them out.
type Deps struct {
	OpenSource  func(device string) (capture.Source, error)
	NewDetector func(cfg detection.YOLOConfig) (detection.Detector, error)
	NewDisplay  func(title string) classifier.Display
	Out         io.Writer
}

// DefaultDeps uses OpenCV for capture, inference and display.
func DefaultDeps() Deps {
	return Deps{
		OpenSource: func(device string) (capture.Source, error) {
			return capture.Open(device)
		},
		NewDetector: func(cfg detection.YOLOConfig) (detection.Detector, error) {
			return detection.NewYOLO(cfg)
		},
		NewDisplay: func(title string) classifier.Display {
			return gocv.NewWindow(title)
		},
		Out: os.Stdout,
	}
}

// App is one detection session
type App struct {
	config  config.Config
	deps    Deps
	session string

	detector detection.Detector
	source   capture.Source
	display  classifier.Display
	web      *web.Server
}

// New validates cfg and creates an App.
func New(cfg config.Config, deps Deps) (*App, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %v", errs)
	}
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	return &App{
		config:  cfg,
		deps:    deps,
		session: uuid.NewString(),
	}, nil
}

// Session returns the session id attached to logs and events.
func (a *App) Session() string {
	return a.session
}

// Init loads the model and opens the capture source. The display is only
// created once the source is known to be readable. Call Shutdown even when
// Init fails.
func (a *App) Init() error {
	logger := log.With("session", a.session)

	det, err := a.deps.NewDetector(detection.YOLOConfig{
		ModelPath:        a.config.ModelPath,
		ConfidenceThresh: float32(a.config.Confidence),
		NMSThresh:        float32(a.config.NMS),
		InputSize:        a.config.ImageSize,
	})
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	a.detector = det
	logger.Info("model loaded", "model", a.config.ModelPath, "conf", a.config.Confidence, "imgsz", a.config.ImageSize)

	src, err := a.deps.OpenSource(a.config.Camera)
	if err != nil {
		return fmt.Errorf("open camera %q: %w", a.config.Camera, err)
	}
	a.source = src
	logger.Info("capture opened", "device", a.config.Camera, "kind", capture.DeviceKind(a.config.Camera))

	if a.config.Headless {
		a.display = classifier.Headless{}
	} else {
		a.display = a.deps.NewDisplay(a.config.WindowTitle)
	}
	return nil
}

// Run starts the dashboard if configured and runs the detection loop on the
// calling goroutine until it stops.
func (a *App) Run(ctx context.Context) (classifier.Stats, error) {
	var publisher classifier.Publisher
	if a.config.WebAddr != "" {
		webCtx, stopWeb := context.WithCancel(ctx)
		a.web = web.NewServer(a.config.WebAddr, a.session)
		if err := a.web.StartAsync(webCtx); err != nil {
			stopWeb()
			return classifier.Stats{}, fmt.Errorf("start dashboard: %w", err)
		}
		defer a.stopDashboard(stopWeb)
		publisher = a.web
	}

	loop, err := classifier.New(classifier.Options{
		Source:    a.source,
		Detector:  a.detector,
		Display:   a.display,
		Publisher: publisher,
		Out:       a.deps.Out,
		QuitKey:   a.config.QuitRune(),
		Session:   a.session,
	})
	if err != nil {
		return classifier.Stats{}, err
	}

	stats, err := loop.Run(ctx)
	log.With("session", a.session).Info("session ended",
		"reason", stats.Reason.String(),
		"frames", stats.Frames,
		"detections", stats.Detections,
		"left", stats.BySide[detection.Left],
		"right", stats.BySide[detection.Right],
		"center", stats.BySide[detection.Center],
	)
	return stats, err
}

// stopDashboard cancels the dashboard and waits for its graceful shutdown so
// the process does not exit with connections still open.
func (a *App) stopDashboard(stop context.CancelFunc) {
	stop()
	ctx, cancel := context.WithTimeout(context.Background(), dashboardStopTimeout)
	defer cancel()
	if err := a.web.Wait(ctx); err != nil {
		log.Warn("dashboard did not stop in time", "error", err)
	}
}

// Shutdown releases everything Init acquired. Safe after a failed Init.
func (a *App) Shutdown() {
	if a.display != nil {
		if err := a.display.Close(); err != nil {
			log.Warn("close display", "error", err)
		}
		a.display = nil
	}
	if a.source != nil {
		if err := a.source.Close(); err != nil {
			log.Warn("close capture", "error", err)
		}
		a.source = nil
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Warn("close detector", "error", err)
		}
		a.detector = nil
	}
}
