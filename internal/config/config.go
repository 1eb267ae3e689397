// Package config provides configuration for the rangeaware command:
// defaults, environment overrides and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/joho/godotenv"
)

// Environment variables read by FromEnv.
const (
	EnvCamera   = "RANGEAWARE_CAMERA"
	EnvModel    = "RANGEAWARE_MODEL"
	EnvConf     = "RANGEAWARE_CONF"
	EnvImgSize  = "RANGEAWARE_IMGSZ"
	EnvWeb      = "RANGEAWARE_WEB"
	EnvHeadless = "RANGEAWARE_HEADLESS"
	EnvLogLevel = "LOG_LEVEL"
)

// DefaultWindowTitle is shown on the display window.
const DefaultWindowTitle = "YOLO Range-awareness Demo - Press 'q' to quit"

// Config holds everything needed to run a detection session.
type Config struct {
	Camera      string  // Camera index, video file or stream URL
	ModelPath   string  // YOLOv8 ONNX weights
	Confidence  float64 // Detector confidence threshold (0-1)
	NMS         float64 // Non-maximum suppression IoU threshold (0-1)
	ImageSize   int     // Square inference size in pixels
	QuitKey     string  // Single key that ends the session
	WindowTitle string
	Headless    bool   // No display window
	WebAddr     string // Dashboard listen address, empty to disable
	LogLevel    string
}

// DefaultConfig returns the defaults: camera 0, confidence 0.3, 640px inference.
func DefaultConfig() Config {
	return Config{
		Camera:      "0",
		ModelPath:   "models/yolov8n.onnx",
		Confidence:  0.3,
		NMS:         0.45,
		ImageSize:   640,
		QuitKey:     "q",
		WindowTitle: DefaultWindowTitle,
		LogLevel:    "info",
	}
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load %s: %w", strings.Join(existing, ", "), err)
	}
	return nil
}

// FromEnv overlays environment variables on cfg. Unparseable numbers are
// reported rather than silently ignored.
func FromEnv(cfg Config) (Config, error) {
	if v := os.Getenv(EnvCamera); v != "" {
		cfg.Camera = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		cfg.ModelPath = v
	}
	if v := os.Getenv(EnvConf); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvConf, err)
		}
		cfg.Confidence = f
	}
	if v := os.Getenv(EnvImgSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvImgSize, err)
		}
		cfg.ImageSize = n
	}
	if v := os.Getenv(EnvWeb); v != "" {
		cfg.WebAddr = v
	}
	if v := os.Getenv(EnvHeadless); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvHeadless, err)
		}
		cfg.Headless = b
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if strings.TrimSpace(c.Camera) == "" {
		errors = append(errors, "camera must not be empty")
	}
	if c.ModelPath == "" {
		errors = append(errors, "model path must not be empty")
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		errors = append(errors, "confidence must be between 0 and 1")
	}
	if c.NMS <= 0 || c.NMS > 1 {
		errors = append(errors, "nms must be greater than 0 and at most 1")
	}
	if c.ImageSize < 32 || c.ImageSize%32 != 0 {
		errors = append(errors, "image size must be a positive multiple of 32")
	}
	if r := []rune(c.QuitKey); len(r) != 1 || r[0] > unicode.MaxASCII {
		// The display reports only the low byte of a key code.
		errors = append(errors, "quit key must be a single ASCII character")
	}

	return errors
}

// QuitRune returns the quit key as a rune.
func (c *Config) QuitRune() rune {
	r := []rune(c.QuitKey)
	if len(r) == 0 {
		return 'q'
	}
	return r[0]
}
