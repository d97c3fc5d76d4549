package preview

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/kenburns/internal/animation"
	"github.com/ivlev/kenburns/internal/clock"
	"github.com/ivlev/kenburns/internal/config"
	"github.com/ivlev/kenburns/internal/geometry"
	"github.com/ivlev/kenburns/internal/media"
	"github.com/ivlev/kenburns/internal/random"
	"github.com/ivlev/kenburns/internal/scheduler"
	"github.com/ivlev/kenburns/internal/source"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

var red = color.RGBA{R: 0xff, A: 0xff}

func TestCrossfadeOpacity(t *testing.T) {
	clk := clock.NewManual()
	s := New(100, 50, WithClock(clk))

	s.SetOpacity(scheduler.SlotA, 1)
	s.SetOpacity(scheduler.SlotB, 0)
	s.Crossfade(scheduler.SlotA, scheduler.SlotB, 4*time.Second)

	clk.Advance(2 * time.Second)
	assert.InDelta(t, 0.5, s.Opacity(scheduler.SlotA), 1e-3)
	assert.InDelta(t, 0.5, s.Opacity(scheduler.SlotB), 1e-3)

	clk.Advance(2 * time.Second)
	assert.Equal(t, 0.0, s.Opacity(scheduler.SlotA))
	assert.Equal(t, 1.0, s.Opacity(scheduler.SlotB))
}

func TestPauseFreezesFadeAndMotion(t *testing.T) {
	clk := clock.NewManual()
	s := New(100, 50, WithClock(clk))

	plan := animation.Plan{
		Start:    animation.State{Scale: 1, Focus: geometry.Center},
		End:      animation.State{Scale: 2, Focus: geometry.Center},
		Duration: 10 * time.Second,
	}
	s.Show(scheduler.SlotA, media.NewImage("a", solid(200, 100, red)))
	s.Animate(scheduler.SlotA, plan)
	s.SetOpacity(scheduler.SlotA, 1)
	s.Crossfade(scheduler.SlotB, scheduler.SlotA, 4*time.Second)

	clk.Advance(5 * time.Second)
	s.Pause()
	clk.Advance(time.Hour)
	assert.InDelta(t, 1.5, s.Camera(scheduler.SlotA).Scale, 1e-9)

	s.Resume()
	clk.Advance(5 * time.Second)
	assert.InDelta(t, 2.0, s.Camera(scheduler.SlotA).Scale, 1e-9)
}

func TestResetTransformReturnsToFill(t *testing.T) {
	s := New(100, 50, WithClock(clock.NewManual()))
	s.Show(scheduler.SlotA, media.NewImage("a", solid(200, 100, red)))
	s.Animate(scheduler.SlotA, animation.Plan{
		Start: animation.State{Scale: 2, Focus: geometry.Point{X: 0.3, Y: 0.4}},
		End:   animation.State{Scale: 2, Focus: geometry.Point{X: 0.3, Y: 0.4}},
	})
	assert.Equal(t, 2.0, s.Camera(scheduler.SlotA).Scale)

	s.ResetTransform(scheduler.SlotA)
	assert.Equal(t, animation.State{Scale: 1, Focus: geometry.Center}, s.Camera(scheduler.SlotA))
}

func TestFrameComposesSlots(t *testing.T) {
	clk := clock.NewManual()
	s := New(100, 50, WithClock(clk))

	frame := s.Frame()
	assert.Equal(t, color.RGBA{A: 0xff}, frame.RGBAAt(50, 25), "empty surface is black")
	s.Release(frame)

	s.Show(scheduler.SlotA, media.NewImage("a", solid(200, 100, red)))
	s.SetOpacity(scheduler.SlotA, 1)
	frame = s.Frame()
	assert.Equal(t, red, frame.RGBAAt(50, 25))
	s.Release(frame)

	s.SetOpacity(scheduler.SlotA, 0.5)
	frame = s.Frame()
	assert.InDelta(t, 0x80, int(frame.RGBAAt(50, 25).R), 2)
	s.Release(frame)

	s.Show(scheduler.SlotB, media.NewVideo("v", nil))
	s.SetOpacity(scheduler.SlotB, 1)
	frame = s.Frame()
	assert.Equal(t, placeholder, frame.RGBAAt(10, 10))
	s.Release(frame)
}

func TestOverlayOutlinesRegions(t *testing.T) {
	s := New(100, 50, WithClock(clock.NewManual()))
	s.Show(scheduler.SlotA, media.NewImage("a", solid(100, 50, red)))
	s.SetOpacity(scheduler.SlotA, 1)
	s.DrawRegions(scheduler.SlotA, []geometry.Rect{{X: 10, Y: 10, W: 20, H: 20}})

	frame := s.Frame()
	assert.Equal(t, regionColor, frame.RGBAAt(10, 10))
	assert.Equal(t, red, frame.RGBAAt(20, 20))
	s.Release(frame)

	s.CleanUp(scheduler.SlotA)
	frame = s.Frame()
	assert.Equal(t, red, frame.RGBAAt(10, 10))
	s.Release(frame)
}

func TestClearKeepsOpacity(t *testing.T) {
	s := New(100, 50, WithClock(clock.NewManual()))
	s.Show(scheduler.SlotA, media.NewImage("a", solid(10, 10, red)))
	s.SetOpacity(scheduler.SlotA, 1)
	s.Clear()

	_, ok := s.Item(scheduler.SlotA)
	assert.False(t, ok)
	assert.Equal(t, 1.0, s.Opacity(scheduler.SlotA))
}

func TestSnapshotWriter(t *testing.T) {
	dir := t.TempDir()
	w, err := NewSnapshotWriter(dir, zerolog.Nop())
	require.NoError(t, err)

	s := New(40, 20, WithClock(clock.NewManual()))
	frame := s.Frame()
	defer s.Release(frame)

	first, err := w.Write(frame)
	require.NoError(t, err)
	second, err := w.Write(frame)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	f, err := os.Open(second)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 20), img.Bounds())
}

func TestDrivenByScheduler(t *testing.T) {
	clk := clock.NewManual()
	surf := New(160, 90, WithClock(clk))

	items := source.Slice{
		media.NewImage("one", solid(320, 180, red)),
		media.NewImage("two", solid(320, 180, color.RGBA{B: 0xff, A: 0xff})),
	}
	cfg := config.Default()
	cfg.ScaleFactorDeviation = 0.5

	s := scheduler.New(context.Background(), source.Indexed(items), surf, cfg,
		scheduler.WithClock(clk), scheduler.WithRandom(random.New(3)), scheduler.WithOverlay(surf))
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Start())
	item, ok := surf.Item(scheduler.SlotA)
	require.True(t, ok)
	assert.Equal(t, "one", item.ID)
	assert.Equal(t, 1.0, surf.Opacity(scheduler.SlotA))

	// 10s image minus half of the 4s fade.
	clk.Advance(8 * time.Second)
	_, err := s.Status()
	require.NoError(t, err)
	clk.Advance(2 * time.Second)

	assert.InDelta(t, 0.5, surf.Opacity(scheduler.SlotB), 1e-3)
	item, _ = surf.Item(scheduler.SlotB)
	assert.Equal(t, "two", item.ID)
}
