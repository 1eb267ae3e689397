// Range-awareness - real-time person and phone detection
//
// Detects people and cell phones on a camera feed and reports whether each
// one sits left or right of the frame's vertical midline.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-rangeaware/internal/app"
	"github.com/teslashibe/go-rangeaware/internal/config"
	"github.com/teslashibe/go-rangeaware/internal/log"
	"github.com/teslashibe/go-rangeaware/pkg/capture"
	"github.com/teslashibe/go-rangeaware/pkg/classifier"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		return 2
	}
	log.Init(cfg.LogLevel)

	a, err := app.New(cfg, app.DefaultDeps())
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		return 2
	}
	defer a.Shutdown()

	if err := a.Init(); err != nil {
		if errors.Is(err, capture.ErrUnavailable) {
			fmt.Fprintln(os.Stderr, "❌ Cannot open webcam. Try a different camera index.")
		}
		fmt.Fprintf(os.Stderr, "❌ Initialization failed: %v\n", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stats, err := a.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Runtime error: %v\n", err)
		return 1
	}
	if stats.Reason == classifier.StopNoFrame {
		fmt.Fprintln(os.Stderr, "❌ Failed to read frame from camera.")
	}
	return 0
}

// loadConfig layers defaults, .env, environment and command line flags.
func loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.FromEnv(config.DefaultConfig())
	if err != nil {
		return cfg, err
	}

	flag.StringVar(&cfg.Camera, "camera", cfg.Camera, "Camera index, video file or stream URL")
	flag.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "Path to YOLOv8 ONNX weights")
	flag.Float64Var(&cfg.Confidence, "conf", cfg.Confidence, "Detection confidence threshold")
	flag.IntVar(&cfg.ImageSize, "imgsz", cfg.ImageSize, "Inference size in pixels")
	flag.StringVar(&cfg.WebAddr, "web", cfg.WebAddr, "Serve the live dashboard on this address (e.g. :8080)")
	flag.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Do not open a display window")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.Parse()

	if *debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
