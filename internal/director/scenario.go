package director

import (
	"time"

	"github.com/ivlev/kenburns/internal/animation"
	"github.com/ivlev/kenburns/internal/geometry"
)

// Version is written into every scenario file.
const Version = "2.0"

// Scenario is a recorded set of pan/zoom plans, one slide per item.
type Scenario struct {
	Version string  `yaml:"version"`
	Slides  []Slide `yaml:"slides"`
}

// Slide is the plan of one item, keyed by the item ID in Input.
type Slide struct {
	ID        int         `yaml:"id"`
	Input     string      `yaml:"input"`
	Duration  float64     `yaml:"duration"` // seconds
	Keyframes []Keyframe  `yaml:"keyframes"`
	Regions   []Rectangle `yaml:"regions,omitempty"`
}

// Keyframe is the camera at a time offset. Zoom is relative to aspect
// fill; X and Y are the crop center in normalized image space.
type Keyframe struct {
	Time float64 `yaml:"time"`
	Zoom float64 `yaml:"zoom"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

// Rectangle is an anchor region in image pixels.
type Rectangle struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// NewSlide records plan for the item called input.
func NewSlide(id int, input string, plan animation.Plan) Slide {
	d := plan.Duration.Seconds()
	slide := Slide{
		ID:       id,
		Input:    input,
		Duration: d,
		Keyframes: []Keyframe{
			keyframe(0, plan.Start),
			keyframe(d, plan.End),
		},
	}
	for _, r := range plan.Regions {
		slide.Regions = append(slide.Regions, Rectangle{X: int(r.X), Y: int(r.Y), W: int(r.W), H: int(r.H)})
	}
	return slide
}

func keyframe(t float64, s animation.State) Keyframe {
	return Keyframe{Time: t, Zoom: s.Scale, X: s.Focus.X, Y: s.Focus.Y}
}

func (k Keyframe) state() animation.State {
	zoom := k.Zoom
	if zoom < 1 {
		zoom = 1
	}
	return animation.State{Scale: zoom, Focus: geometry.Point{X: k.X, Y: k.Y}}
}

// Plan rebuilds the recorded motion from the first and last keyframes. A
// slide without keyframes holds the centered fill framing.
func (s Slide) Plan() animation.Plan {
	d := time.Duration(s.Duration * float64(time.Second))
	if len(s.Keyframes) == 0 {
		return animation.Static(d)
	}
	plan := animation.Plan{
		Start:    s.Keyframes[0].state(),
		End:      s.Keyframes[len(s.Keyframes)-1].state(),
		Duration: d,
	}
	for _, r := range s.Regions {
		plan.Regions = append(plan.Regions, geometry.Rect{X: float64(r.X), Y: float64(r.Y), W: float64(r.W), H: float64(r.H)})
	}
	return plan
}
