// Package animation plans randomized pan/zoom (Ken Burns) motions.
package animation

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/ivlev/kenburns/internal/geometry"
)

// State is one end of a pan/zoom motion. Scale is relative to aspect fill
// (>= 1.0); Focus is the crop center in normalized image space.
type State struct {
	Scale float64        `yaml:"scale"`
	Focus geometry.Point `yaml:"focus"`
}

// Plan is a start/end state pair and how long to move between them.
type Plan struct {
	Start    State
	End      State
	Duration time.Duration

	// Regions are the anchor regions the plan was biased by, if any.
	Regions []geometry.Rect
}

// Lerp returns the state at fraction f of the motion. Both endpoints cover
// the viewport and coverage is convex in scale, so every f in [0,1] does too.
func (p Plan) Lerp(f float64) State {
	switch {
	case f <= 0:
		return p.Start
	case f >= 1:
		return p.End
	}
	return State{
		Scale: p.Start.Scale + (p.End.Scale-p.Start.Scale)*f,
		Focus: geometry.Point{
			X: p.Start.Focus.X + (p.End.Focus.X-p.Start.Focus.X)*f,
			Y: p.Start.Focus.Y + (p.End.Focus.Y-p.Start.Focus.Y)*f,
		},
	}
}

// Progress maps elapsed time to a motion fraction through an easing curve.
// The curve reshapes time only; the result is clamped to [0,1].
func (p Plan) Progress(elapsed time.Duration, fn ease.TweenFunc) float64 {
	if p.Duration <= 0 || elapsed >= p.Duration {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	if fn == nil {
		fn = ease.Linear
	}
	tw := gween.New(0, 1, float32(p.Duration.Seconds()), fn)
	v, _ := tw.Update(float32(elapsed.Seconds()))
	return clamp01(float64(v))
}

// StateAt is Lerp(Progress(elapsed, fn)).
func (p Plan) StateAt(elapsed time.Duration, fn ease.TweenFunc) State {
	return p.Lerp(p.Progress(elapsed, fn))
}

// Static is a plan that holds the aspect-fill, centered framing.
func Static(d time.Duration) Plan {
	s := State{Scale: 1, Focus: geometry.Center}
	return Plan{Start: s, End: s, Duration: d}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
