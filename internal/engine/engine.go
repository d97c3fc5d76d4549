// Package engine renders a slideshow offline: every image is planned,
// encoded as its own ffmpeg segment and the segments are joined with
// crossfades.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/kenburns/internal/animation"
	"github.com/ivlev/kenburns/internal/config"
	"github.com/ivlev/kenburns/internal/director"
	"github.com/ivlev/kenburns/internal/effects"
	"github.com/ivlev/kenburns/internal/geometry"
	"github.com/ivlev/kenburns/internal/media"
	"github.com/ivlev/kenburns/internal/random"
	"github.com/ivlev/kenburns/internal/source"
	"github.com/ivlev/kenburns/internal/system"
	"github.com/ivlev/kenburns/internal/video"
)

// VideoProject is one export run.
type VideoProject struct {
	Source  source.IndexedSource
	Config  config.Config
	Export  config.Export
	Planner animation.Planner
	Effect  effects.Effect
	Encoder video.VideoEncoder
	Rand    random.Generator
	Logger  zerolog.Logger

	// Scenario, when set, receives the plans actually rendered.
	Scenario *director.Scenario

	mu      sync.Mutex
	tempDir string
}

// Slide is a planned image ready for encoding.
type Slide struct {
	Index int
	Item  media.Item
	Plan  animation.Plan
}

// NewVideoProject wires the default effect and encoder around src.
func NewVideoProject(src source.IndexedSource, cfg config.Config, exp config.Export, planner animation.Planner, logger zerolog.Logger) *VideoProject {
	return &VideoProject{
		Source:  src,
		Config:  cfg,
		Export:  exp,
		Planner: planner,
		Effect:  effects.KenBurns{Easing: exp.Easing},
		Encoder: &video.FFmpegEncoder{},
		Rand:    random.New(cfg.Seed),
		Logger:  logger,
	}
}

func (p *VideoProject) Run(ctx context.Context) error {
	runID := uuid.NewString()
	log := p.Logger.With().Str("component", "engine").Str("run", runID).Logger()
	startTime := time.Now()

	if p.Export.VideoEncoder == "" {
		p.Export.VideoEncoder = system.GetBestH264Encoder(ctx)
	}
	log.Info().
		Str("output", p.Export.OutputVideo).
		Int("width", p.Export.Width).
		Int("height", p.Export.Height).
		Int("fps", p.Export.FPS).
		Str("encoder", p.Export.VideoEncoder).
		Msg("export started")

	tempDir, err := os.MkdirTemp(p.Export.TempDir, "kenburns-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	p.tempDir = tempDir
	defer os.RemoveAll(tempDir)

	slides, err := p.planSlides(ctx, log)
	if err != nil {
		return err
	}
	planEnd := time.Now()

	fade := p.Config.TransitionAnimationDuration.Seconds()
	durations := p.segmentDurations(slides, fade)

	segments := make([]video.Segment, len(slides))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Export.Workers, 1))
	for i, slide := range slides {
		g.Go(func() error {
			path, err := p.encode(gctx, slide, durations[i], fade)
			if err != nil {
				return err
			}
			segments[i] = video.Segment{Path: path, Duration: durations[i]}
			log.Info().Int("slide", i+1).Int("of", len(slides)).Msg("segment ready")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("encode segments: %w", err)
	}
	encodeEnd := time.Now()

	err = p.Encoder.Concatenate(ctx, segments, p.Export.OutputVideo, tempDir, video.ConcatOptions{
		Transition:   p.Export.TransitionType,
		FadeDuration: fade,
		Encoder:      p.Export.VideoEncoder,
		Quality:      p.Export.Quality,
	})
	if err != nil {
		return fmt.Errorf("join segments: %w", err)
	}

	total := time.Since(startTime)
	ev := log.Info().
		Int("slides", len(slides)).
		Dur("total", total).
		Dur("planning", planEnd.Sub(startTime)).
		Dur("encoding", encodeEnd.Sub(planEnd)).
		Dur("concat", time.Since(encodeEnd)).
		Float64("slides_per_sec", float64(len(slides))/total.Seconds())
	if stats, err := system.Snapshot(ctx, 0); err == nil {
		ev = stats.Fields(ev)
	}
	ev.Msg("export finished")
	return nil
}

// planSlides fetches and plans every image; videos are left out of an
// export.
func (p *VideoProject) planSlides(ctx context.Context, log zerolog.Logger) ([]Slide, error) {
	count := p.Source.Count()
	if count == 0 {
		return nil, source.ErrNoItems
	}
	viewport := geometry.Size{W: float64(p.Export.Width), H: float64(p.Export.Height)}
	var overrides []time.Duration
	if p.Export.TotalDuration > 0 {
		overrides = DistributeDurations(p.Export.TotalDuration, p.Config.TransitionAnimationDuration.Seconds(), count, p.Rand)
	}

	found := make([]*Slide, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Export.Workers, 1))
	for i := 0; i < count; i++ {
		g.Go(func() error {
			item, err := director.FetchOne(gctx, p.Source, i)
			if err != nil {
				return err
			}
			if item == nil || item.Kind != media.KindImage {
				log.Warn().Int("index", i).Msg("not an image, left out of export")
				return nil
			}
			if overrides != nil {
				*item = item.WithDuration(overrides[i])
			}
			found[i] = &Slide{Index: i, Item: *item, Plan: p.plan(*item, viewport, log)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("plan slides: %w", err)
	}

	var slides []Slide
	for _, s := range found {
		if s == nil {
			continue
		}
		slides = append(slides, *s)
		if p.Scenario != nil {
			p.Scenario.Slides = append(p.Scenario.Slides, director.NewSlide(s.Index+1, s.Item.ID, s.Plan))
		}
	}
	if len(slides) == 0 {
		return nil, source.ErrNoItems
	}
	return slides, nil
}

// plan serializes planner access; the randomized planner is not safe for
// concurrent use.
func (p *VideoProject) plan(item media.Item, viewport geometry.Size, log zerolog.Logger) animation.Plan {
	p.mu.Lock()
	defer p.mu.Unlock()
	plan, err := p.Planner.Plan(item, viewport)
	if err != nil {
		log.Warn().Err(err).Str("item", item.ID).Msg("planning failed, static framing")
		d := item.Duration
		if d <= 0 {
			d = p.Config.ImageAnimationDuration
		}
		return animation.Static(d)
	}
	return plan
}

// segmentDurations are the plan lengths in seconds, kept longer than the
// crossfade so every join has something to fade from.
func (p *VideoProject) segmentDurations(slides []Slide, fade float64) []float64 {
	out := make([]float64, len(slides))
	for i, s := range slides {
		out[i] = max(s.Plan.Duration.Seconds(), fade*1.1)
	}
	return out
}

func (p *VideoProject) encode(ctx context.Context, s Slide, duration, fade float64) (string, error) {
	b := s.Item.Image.Bounds()
	params := config.SegmentParams{
		Width:        p.Export.Width,
		Height:       p.Export.Height,
		FPS:          p.Export.FPS,
		Duration:     duration,
		FadeDuration: fade,
		ImageWidth:   b.Dx(),
		ImageHeight:  b.Dy(),
		PageIndex:    s.Index,
		Debug:        p.Export.Debug,
	}
	// The plan stretches over the whole segment.
	plan := s.Plan
	plan.Duration = time.Duration(duration * float64(time.Second))
	params.Filter = p.Effect.GenerateFilter(plan, params)

	path := filepath.Join(p.tempDir, fmt.Sprintf("s%d.mp4", s.Index))
	if err := p.Encoder.EncodeSegment(ctx, s.Item.Image, path, params, p.Export.VideoEncoder, p.Export.Quality); err != nil {
		return "", fmt.Errorf("slide %d (%s): %w", s.Index, s.Item.ID, err)
	}
	return path, nil
}

// DistributeDurations splits total seconds of output over count slides.
// Joins overlap by fade, so the slides add up to total + (count-1)*fade.
// The first slide deviates up to ±15% from the even split and each next
// one up to ±15% from its predecessor.
func DistributeDurations(total, fade float64, count int, rng random.Generator) []time.Duration {
	if count <= 0 {
		return nil
	}
	numFades := float64(max(count-1, 0))
	clips := total + numFades*fade
	base := clips / float64(count)

	durations := make([]float64, count)
	durations[0] = base * (1 + rng.Float64(-0.15, 0.15))
	for i := 1; i < count; i++ {
		durations[i] = durations[i-1] * (1 + rng.Float64(-0.15, 0.15))
		durations[i] = max(durations[i], fade*1.1)
	}

	sum := 0.0
	for _, d := range durations {
		sum += d
	}
	scale := clips / sum

	out := make([]time.Duration, count)
	for i, d := range durations {
		out[i] = time.Duration(d * scale * float64(time.Second))
	}
	return out
}
