package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDurations reports a configuration whose shortest possible image
// animation does not outlast half of the longest possible transition.
var ErrInvalidDurations = errors.New("animation durations setup is invalid")

// FaceMode selects which detected regions bias the pan/zoom focus.
type FaceMode string

const (
	FaceModeNone    FaceMode = "none"    // plain Ken Burns, image center
	FaceModeBiggest FaceMode = "biggest" // center of the largest region
	FaceModeGroup   FaceMode = "group"   // center of the bounding box of all regions
)

// ParseFaceMode accepts the mode names case-insensitively. Empty means none.
func ParseFaceMode(s string) (FaceMode, error) {
	switch FaceMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", FaceModeNone:
		return FaceModeNone, nil
	case FaceModeBiggest:
		return FaceModeBiggest, nil
	case FaceModeGroup:
		return FaceModeGroup, nil
	default:
		return "", fmt.Errorf("unknown face mode: %s", s)
	}
}

// UnmarshalYAML lets face_mode be written in any case in config files.
func (m *FaceMode) UnmarshalYAML(value *yaml.Node) error {
	mode, err := ParseFaceMode(value.Value)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Config holds the slideshow animation settings.
type Config struct {
	// ScaleFactorDeviation widens the allowed zoom range: 0.5 allows scales
	// from 1.0 to 1.5, 0 pins the scale (pan only).
	ScaleFactorDeviation float64 `yaml:"scale_factor_deviation"`

	ImageAnimationDuration time.Duration `yaml:"image_animation_duration"`
	// ImageAnimationDurationDeviation: 10s ± 2s gives durations from 8s to 12s.
	ImageAnimationDurationDeviation time.Duration `yaml:"image_animation_duration_deviation"`

	TransitionAnimationDuration          time.Duration `yaml:"transition_animation_duration"`
	TransitionAnimationDurationDeviation time.Duration `yaml:"transition_animation_duration_deviation"`

	FaceMode FaceMode `yaml:"face_mode"`
	Detector string   `yaml:"detector"`

	// ShowFaceRegions asks the overlay to draw detected regions. Debug only.
	ShowFaceRegions bool `yaml:"show_face_regions"`

	Seed int64 `yaml:"seed"` // 0 seeds from the clock
}

// Default returns the stock settings.
func Default() Config {
	return Config{
		ScaleFactorDeviation:        1.0,
		ImageAnimationDuration:      10 * time.Second,
		TransitionAnimationDuration: 4 * time.Second,
		FaceMode:                    FaceModeNone,
		Detector:                    "none",
	}
}

// Load reads a YAML file on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every range and the duration invariant.
func (c Config) Validate() error {
	switch {
	case c.ScaleFactorDeviation < 0:
		return fmt.Errorf("scale_factor_deviation must be >= 0, got %v", c.ScaleFactorDeviation)
	case c.ImageAnimationDuration <= 0:
		return fmt.Errorf("image_animation_duration must be > 0, got %v", c.ImageAnimationDuration)
	case c.ImageAnimationDurationDeviation < 0:
		return fmt.Errorf("image_animation_duration_deviation must be >= 0, got %v", c.ImageAnimationDurationDeviation)
	case c.TransitionAnimationDuration <= 0:
		return fmt.Errorf("transition_animation_duration must be > 0, got %v", c.TransitionAnimationDuration)
	case c.TransitionAnimationDurationDeviation < 0:
		return fmt.Errorf("transition_animation_duration_deviation must be >= 0, got %v", c.TransitionAnimationDurationDeviation)
	}
	if _, err := ParseFaceMode(string(c.FaceMode)); err != nil {
		return err
	}
	return c.ValidateDurations()
}

// ValidateDurations enforces
//
//	image - imageDeviation - (transition - transitionDeviation)/2 > 0
//
// so that every item is on screen for a positive time before its crossfade.
func (c Config) ValidateDurations() error {
	slack := c.ImageAnimationDuration - c.ImageAnimationDurationDeviation -
		(c.TransitionAnimationDuration-c.TransitionAnimationDurationDeviation)/2
	if slack <= 0 {
		return fmt.Errorf("%w: image %v±%v, transition %v±%v",
			ErrInvalidDurations,
			c.ImageAnimationDuration, c.ImageAnimationDurationDeviation,
			c.TransitionAnimationDuration, c.TransitionAnimationDurationDeviation)
	}
	return nil
}

// Export holds the offline mp4 rendering settings.
type Export struct {
	OutputVideo    string
	Width          int
	Height         int
	FPS            int
	Workers        int
	TransitionType string // xfade transition name, "fade" when empty
	DPI            int
	VideoEncoder   string // empty picks the best available H.264 encoder
	Quality        int
	Easing         string // "linear" or "inout"
	Debug          bool

	// TotalDuration > 0 spreads this many seconds of output over the slides
	// instead of using each plan's own duration.
	TotalDuration float64
	TempDir       string
}

// DefaultExport is 1080p at 30 fps.
func DefaultExport() Export {
	return Export{
		OutputVideo:    "slideshow.mp4",
		Width:          1920,
		Height:         1080,
		FPS:            30,
		Workers:        2,
		TransitionType: "fade",
		DPI:            150,
		Quality:        23,
		Easing:         "linear",
	}
}

// SegmentParams describes one encoded slide.
type SegmentParams struct {
	Width, Height int
	FPS           int
	Duration      float64 // seconds, fade included
	FadeDuration  float64
	ImageWidth    int
	ImageHeight   int
	PageIndex     int
	Debug         bool
	Filter        string
}
