package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/ivlev/kenburns/internal/analyzer"
	"github.com/ivlev/kenburns/internal/animation"
	"github.com/ivlev/kenburns/internal/clock"
	"github.com/ivlev/kenburns/internal/config"
	"github.com/ivlev/kenburns/internal/random"
)

// PlannerFactory builds the planner for a configuration. It runs at every
// Start and SetConfig.
type PlannerFactory func(cfg config.Config, rng random.Generator, det analyzer.Detector, logger zerolog.Logger) animation.Planner

func defaultPlannerFactory(cfg config.Config, rng random.Generator, det analyzer.Detector, logger zerolog.Logger) animation.Planner {
	return animation.BuildPlanner(cfg, rng, det, logger)
}

// WithClock replaces the wall clock, typically with a clock.Manual in tests.
func WithClock(c clock.Clock) func(*Scheduler) {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger injects a logger; the scheduler tags it with its component name.
func WithLogger(logger zerolog.Logger) func(*Scheduler) {
	return func(s *Scheduler) { s.log = logger }
}

// WithDetector fixes the anchor detector instead of resolving
// config.Detector.
func WithDetector(d analyzer.Detector) func(*Scheduler) {
	return func(s *Scheduler) { s.detector = d }
}

// WithOverlay draws anchor regions when ShowFaceRegions is on.
func WithOverlay(o Overlay) func(*Scheduler) {
	return func(s *Scheduler) { s.overlay = o }
}

// WithObserver registers o for every notification interface it implements.
func WithObserver(o any) func(*Scheduler) {
	return func(s *Scheduler) { s.observers = append(s.observers, o) }
}

// WithRecorder reports measurements, usually to telemetry.Metrics.
func WithRecorder(r Recorder) func(*Scheduler) {
	return func(s *Scheduler) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithRandom replaces the generator seeded from config.Seed.
func WithRandom(g random.Generator) func(*Scheduler) {
	return func(s *Scheduler) { s.rng = g }
}

// WithPlannerFactory replaces animation.BuildPlanner, for instance to
// replay a recorded scenario.
func WithPlannerFactory(f PlannerFactory) func(*Scheduler) {
	return func(s *Scheduler) {
		if f != nil {
			s.factory = f
		}
	}
}
