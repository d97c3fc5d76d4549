// Package director records pan/zoom plans into YAML scenarios and replays
// them.
package director

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ivlev/kenburns/internal/analyzer"
	"github.com/ivlev/kenburns/internal/animation"
	"github.com/ivlev/kenburns/internal/config"
	"github.com/ivlev/kenburns/internal/geometry"
	"github.com/ivlev/kenburns/internal/media"
	"github.com/ivlev/kenburns/internal/random"
	"github.com/ivlev/kenburns/internal/source"
)

// Director plans every item of a source against one viewport.
type Director struct {
	Planner  animation.Planner
	Viewport geometry.Size
	Logger   zerolog.Logger
}

// NewDirector creates a Director for a width x height output.
func NewDirector(planner animation.Planner, width, height int, logger zerolog.Logger) *Director {
	return &Director{
		Planner:  planner,
		Viewport: geometry.Size{W: float64(width), H: float64(height)},
		Logger:   logger.With().Str("component", "director").Logger(),
	}
}

// GenerateScenario fetches and plans each item of src in order. Videos and
// items the source cannot deliver are skipped; a planning error keeps the
// slide with a static framing.
func (d *Director) GenerateScenario(ctx context.Context, src source.IndexedSource) (*Scenario, error) {
	scenario := &Scenario{Version: Version}
	for i := 0; i < src.Count(); i++ {
		item, err := FetchOne(ctx, src, i)
		if err != nil {
			return nil, err
		}
		if item == nil {
			d.Logger.Warn().Int("index", i).Msg("item unavailable, skipped")
			continue
		}
		if item.Kind != media.KindImage {
			d.Logger.Debug().Str("item", item.ID).Msg("video has no plan, skipped")
			continue
		}

		plan, err := d.Planner.Plan(*item, d.Viewport)
		if err != nil {
			d.Logger.Warn().Err(err).Str("item", item.ID).Msg("planning failed, static framing")
			plan = animation.Static(item.Duration)
		}
		scenario.Slides = append(scenario.Slides, NewSlide(i+1, item.ID, plan))
	}
	if len(scenario.Slides) == 0 {
		return nil, fmt.Errorf("generate scenario: %w", source.ErrNoItems)
	}
	d.Logger.Info().Int("slides", len(scenario.Slides)).Msg("scenario generated")
	return scenario, nil
}

// FetchOne waits for the item at index. A nil item means the source had
// nothing there.
func FetchOne(ctx context.Context, src source.IndexedSource, index int) (*media.Item, error) {
	ch := make(chan *media.Item, 1)
	src.Fetch(ctx, index, func(it *media.Item) { ch <- it })
	select {
	case it := <-ch:
		return it, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ScriptedPlanner replays a scenario by item ID. Items the scenario does
// not know go to Fallback. Replayed states are clamped so they still cover
// the viewport when it differs from the recording one.
type ScriptedPlanner struct {
	slides   map[string]Slide
	Fallback animation.Planner
	Logger   zerolog.Logger
}

func NewScriptedPlanner(scenario *Scenario, fallback animation.Planner, logger zerolog.Logger) *ScriptedPlanner {
	p := &ScriptedPlanner{
		slides:   make(map[string]Slide, len(scenario.Slides)),
		Fallback: fallback,
		Logger:   logger.With().Str("component", "scripted_planner").Logger(),
	}
	for _, s := range scenario.Slides {
		p.slides[s.Input] = s
	}
	return p
}

func (p *ScriptedPlanner) Plan(item media.Item, viewport geometry.Size) (animation.Plan, error) {
	slide, ok := p.slides[item.ID]
	if !ok || item.Kind != media.KindImage {
		if p.Fallback == nil {
			return animation.Plan{}, fmt.Errorf("plan %s: not in scenario", item.ID)
		}
		return p.Fallback.Plan(item, viewport)
	}

	plan := slide.Plan()
	size := item.Size()
	plan.Start.Focus = geometry.ClampFocus(plan.Start.Focus, size, viewport, plan.Start.Scale)
	plan.End.Focus = geometry.ClampFocus(plan.End.Focus, size, viewport, plan.End.Scale)
	switch {
	case item.Duration > 0:
		plan.Duration = item.Duration
	case plan.Duration <= 0 && p.Fallback != nil:
		if fresh, err := p.Fallback.Plan(item, viewport); err == nil {
			plan.Duration = fresh.Duration
		}
	}
	p.Logger.Debug().Str("item", item.ID).Dur("duration", plan.Duration).Msg("replaying plan")
	return plan, nil
}

// PlannerFactory builds ScriptedPlanners over scenario, each falling back
// to the randomized planner for cfg. It fits scheduler.WithPlannerFactory.
func PlannerFactory(scenario *Scenario) func(config.Config, random.Generator, analyzer.Detector, zerolog.Logger) animation.Planner {
	return func(cfg config.Config, rng random.Generator, det analyzer.Detector, logger zerolog.Logger) animation.Planner {
		return NewScriptedPlanner(scenario, animation.BuildPlanner(cfg, rng, det, logger), logger)
	}
}
