package director

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/kenburns/internal/animation"
	"github.com/ivlev/kenburns/internal/config"
	"github.com/ivlev/kenburns/internal/geometry"
	"github.com/ivlev/kenburns/internal/media"
	"github.com/ivlev/kenburns/internal/random"
	"github.com/ivlev/kenburns/internal/source"
)

func img(id string, w, h int) media.Item {
	return media.NewImage(id, image.NewRGBA(image.Rect(0, 0, w, h)))
}

type fixedPlanner struct {
	plan  animation.Plan
	calls int
}

func (f *fixedPlanner) Plan(media.Item, geometry.Size) (animation.Plan, error) {
	f.calls++
	return f.plan, nil
}

func TestGenerateScenario(t *testing.T) {
	src := source.Slice{
		img("a.jpg", 400, 300),
		media.NewVideo("clip.mp4", nil),
		img("b.jpg", 300, 400),
	}
	cfg := config.Default()
	planner := animation.BuildPlanner(cfg, random.New(1), nil, zerolog.Nop())

	d := NewDirector(planner, 160, 90, zerolog.Nop())
	sc, err := d.GenerateScenario(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, Version, sc.Version)
	require.Len(t, sc.Slides, 2)
	assert.Equal(t, "a.jpg", sc.Slides[0].Input)
	assert.Equal(t, 1, sc.Slides[0].ID)
	assert.Equal(t, "b.jpg", sc.Slides[1].Input)
	assert.Equal(t, 3, sc.Slides[1].ID)
	for _, s := range sc.Slides {
		assert.Equal(t, 10.0, s.Duration)
		require.Len(t, s.Keyframes, 2)
		assert.Equal(t, 0.0, s.Keyframes[0].Time)
		assert.Equal(t, 10.0, s.Keyframes[1].Time)
	}
}

func TestGenerateScenarioNothingPlannable(t *testing.T) {
	d := NewDirector(&fixedPlanner{}, 160, 90, zerolog.Nop())
	_, err := d.GenerateScenario(context.Background(), source.Slice{media.NewVideo("v", nil)})
	assert.ErrorIs(t, err, source.ErrNoItems)
}

func TestSlidePlanRoundTrip(t *testing.T) {
	plan := animation.Plan{
		Start:    animation.State{Scale: 1.2, Focus: geometry.Point{X: 0.4, Y: 0.45}},
		End:      animation.State{Scale: 1, Focus: geometry.Center},
		Duration: 7500 * time.Millisecond,
		Regions:  []geometry.Rect{{X: 10, Y: 20, W: 30, H: 40}},
	}
	assert.Equal(t, plan, NewSlide(1, "x", plan).Plan())
	assert.Equal(t, animation.Static(2*time.Second), Slide{Duration: 2}.Plan())
}

func TestScenarioWriteRead(t *testing.T) {
	sc := &Scenario{
		Version: Version,
		Slides: []Slide{
			NewSlide(1, "test.png", animation.Plan{
				Start:    animation.State{Scale: 1, Focus: geometry.Center},
				End:      animation.State{Scale: 1.5, Focus: geometry.Point{X: 0.3, Y: 0.6}},
				Duration: 5 * time.Second,
			}),
		},
	}

	path := filepath.Join(t.TempDir(), "nested", "scenario.yaml")
	require.NoError(t, WriteScenario(sc, path))

	read, err := ReadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, sc, read)
}

func TestReadScenarioRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("slides: {"), 0644))
	_, err := ReadScenario(path)
	assert.Error(t, err)
}

func TestScriptedPlannerReplaysAndFallsBack(t *testing.T) {
	recorded := animation.Plan{
		Start:    animation.State{Scale: 2, Focus: geometry.Point{X: 0.3, Y: 0.5}},
		End:      animation.State{Scale: 1, Focus: geometry.Center},
		Duration: 6 * time.Second,
	}
	sc := &Scenario{Version: Version, Slides: []Slide{NewSlide(1, "known", recorded)}}
	fallback := &fixedPlanner{plan: animation.Static(9 * time.Second)}
	p := NewScriptedPlanner(sc, fallback, zerolog.Nop())
	viewport := geometry.Size{W: 160, H: 90}

	got, err := p.Plan(img("known", 320, 180), viewport)
	require.NoError(t, err)
	assert.Equal(t, recorded, got)
	assert.Zero(t, fallback.calls)

	got, err = p.Plan(img("known", 320, 180).WithDuration(3*time.Second), viewport)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, got.Duration)

	got, err = p.Plan(img("unknown", 320, 180), viewport)
	require.NoError(t, err)
	assert.Equal(t, 9*time.Second, got.Duration)
	assert.Equal(t, 1, fallback.calls)
}

func TestScriptedPlannerClampsToNewViewport(t *testing.T) {
	recorded := animation.Plan{
		Start:    animation.State{Scale: 1, Focus: geometry.Point{X: 0.1, Y: 0.5}},
		End:      animation.State{Scale: 1, Focus: geometry.Point{X: 0.1, Y: 0.5}},
		Duration: time.Second,
	}
	sc := &Scenario{Slides: []Slide{NewSlide(1, "wide", recorded)}}
	p := NewScriptedPlanner(sc, nil, zerolog.Nop())

	// At fill scale a 400x100 image in a 100x100 viewport shows 1/4 of its
	// width, so the focus cannot sit left of 0.125.
	size := geometry.Size{W: 400, H: 100}
	viewport := geometry.Size{W: 100, H: 100}
	got, err := p.Plan(img("wide", 400, 100), viewport)
	require.NoError(t, err)
	assert.InDelta(t, 0.125, got.Start.Focus.X, 1e-9)
	assert.True(t, geometry.Covers(size, viewport, got.Start.Scale, got.Start.Focus))

	_, err = p.Plan(img("other", 400, 100), viewport)
	assert.Error(t, err)
}

func TestScenarioPaths(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 2, 13, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join(dir, "scenario_2026-02-13_01-00-00.yaml"), GenerateScenarioPath(dir, at))

	_, err := FindLatestScenario(dir)
	assert.Error(t, err)

	older := GenerateScenarioPath(dir, at.Add(-time.Hour))
	newer := GenerateScenarioPath(dir, at)
	for i, path := range []string{newer, older} {
		require.NoError(t, os.WriteFile(path, []byte("version: x"), 0644))
		mod := at.Add(-time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(path, mod, mod))
	}

	latest, err := FindLatestScenario(dir)
	require.NoError(t, err)
	assert.Equal(t, newer, latest)
}
