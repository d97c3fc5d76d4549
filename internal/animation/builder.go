package animation

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/ivlev/kenburns/internal/analyzer"
	"github.com/ivlev/kenburns/internal/config"
	"github.com/ivlev/kenburns/internal/geometry"
	"github.com/ivlev/kenburns/internal/media"
	"github.com/ivlev/kenburns/internal/random"
)

var (
	ErrNotImage  = errors.New("item is not an image")
	ErrEmptySize = errors.New("image or viewport has no area")
)

// Planner produces a pan/zoom plan for an image item.
type Planner interface {
	Plan(item media.Item, viewport geometry.Size) (Plan, error)
}

// Builder is the randomized planner. Not safe for concurrent use: the random
// generator is shared.
type Builder struct {
	ScaleFactorDeviation float64
	Duration             time.Duration
	DurationDeviation    time.Duration
	Mode                 config.FaceMode

	Detector analyzer.Detector
	Rand     random.Generator
	Logger   zerolog.Logger
}

// BuildPlanner wires a Builder whose anchor strategy matches cfg.FaceMode.
// Detection only runs when the mode asks for it.
func BuildPlanner(cfg config.Config, rng random.Generator, det analyzer.Detector, logger zerolog.Logger) *Builder {
	if cfg.FaceMode == config.FaceModeNone || det == nil {
		det = analyzer.None{}
	}
	return &Builder{
		ScaleFactorDeviation: cfg.ScaleFactorDeviation,
		Duration:             cfg.ImageAnimationDuration,
		DurationDeviation:    cfg.ImageAnimationDurationDeviation,
		Mode:                 cfg.FaceMode,
		Detector:             det,
		Rand:                 rng,
		Logger:               logger.With().Str("component", "planner").Logger(),
	}
}

// Plan implements Planner.
func (b *Builder) Plan(item media.Item, viewport geometry.Size) (Plan, error) {
	if item.Kind != media.KindImage || item.Image == nil {
		return Plan{}, fmt.Errorf("plan %s: %w", item.ID, ErrNotImage)
	}
	if item.Size().Empty() || viewport.Empty() {
		return Plan{}, fmt.Errorf("plan %s: %w", item.ID, ErrEmptySize)
	}
	return b.Build(item.Image, viewport, item.Duration), nil
}

// Build plans img against viewport. override > 0 replaces the randomized
// duration.
func (b *Builder) Build(img image.Image, viewport geometry.Size, override time.Duration) Plan {
	size := geometry.SizeOf(img.Bounds())
	bounds := geometry.ResolveBounds(size, viewport, b.ScaleFactorDeviation)

	duration := override
	if duration <= 0 {
		duration = random.Deviate(b.Rand, b.Duration, b.DurationDeviation)
	}

	// Whichever end gets the smaller scale decides zoom in vs zoom out.
	s1 := b.Rand.Float64(bounds.Min, bounds.Max)
	s2 := b.Rand.Float64(bounds.Min, bounds.Max)
	small, large := min(s1, s2), max(s1, s2)

	var start, end State
	if b.Rand.Bool() {
		start.Scale, end.Scale = small, large
	} else {
		start.Scale, end.Scale = large, small
	}

	regions := b.detect(img)
	anchors := geometry.ResolveAnchors(size, b.Mode, regions)

	start.Focus = b.jitter(anchors[0], size, viewport, start.Scale)
	end.Focus = b.jitter(anchors[0], size, viewport, end.Scale)

	// A detected anchor pins one end of the motion on it.
	if len(regions) > 0 && b.Mode != config.FaceModeNone {
		if b.Rand.Bool() {
			start.Focus = geometry.ClampFocus(anchors[0], size, viewport, start.Scale)
		} else {
			end.Focus = geometry.ClampFocus(anchors[0], size, viewport, end.Scale)
		}
	}

	return Plan{Start: start, End: end, Duration: duration, Regions: regions}
}

func (b *Builder) detect(img image.Image) []geometry.Rect {
	if b.Mode == config.FaceModeNone || b.Detector == nil {
		return nil
	}
	regions, err := b.Detector.Detect(img)
	if err != nil {
		b.Logger.Warn().Err(err).Msg("region detection failed, using image center")
		return nil
	}
	return regions
}

// jitter offsets the candidate by a random amount that keeps the crop within
// the image at the given scale.
func (b *Builder) jitter(candidate geometry.Point, img, viewport geometry.Size, scale float64) geometry.Point {
	lo, hi := geometry.FocusLimits(img, viewport, scale)
	c := geometry.ClampFocus(candidate, img, viewport, scale)
	p := geometry.Point{
		X: c.X + b.Rand.Float64(lo.X-c.X, hi.X-c.X),
		Y: c.Y + b.Rand.Float64(lo.Y-c.Y, hi.Y-c.Y),
	}
	return geometry.ClampFocus(p, img, viewport, scale)
}
