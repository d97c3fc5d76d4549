package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivlev/kenburns/internal/config"
)

var sizePairs = []struct {
	img, viewport Size
}{
	{Size{300, 200}, Size{100, 100}},
	{Size{1920, 1080}, Size{1280, 720}},
	{Size{1080, 1920}, Size{1280, 720}},
	{Size{500, 500}, Size{1920, 1080}},
	{Size{4000, 1000}, Size{720, 1280}},
	{Size{17, 3}, Size{3, 17}},
}

func TestResolveBounds(t *testing.T) {
	b := ResolveBounds(Size{300, 200}, Size{100, 100}, 0.5)
	assert.InDelta(t, 0.5, b.Fill, 1e-12)
	assert.Equal(t, 1.0, b.Min)
	assert.Equal(t, 1.5, b.Max)

	b = ResolveBounds(Size{300, 200}, Size{100, 100}, 0)
	assert.Equal(t, b.Min, b.Max)
}

func TestMinScaleCoversViewport(t *testing.T) {
	for _, p := range sizePairs {
		b := ResolveBounds(p.img, p.viewport, 0)
		crop := CropRect(p.img, p.viewport, b.Min, Center)

		assert.True(t, Covers(p.img, p.viewport, b.Min, Center), "%v in %v", p.img, p.viewport)
		assert.LessOrEqual(t, crop.W, p.img.W+1e-6)
		assert.LessOrEqual(t, crop.H, p.img.H+1e-6)
		// aspect fill: one dimension is fully used
		full := abs(crop.W-p.img.W) < 1e-6 || abs(crop.H-p.img.H) < 1e-6
		assert.True(t, full, "%v in %v: crop %v", p.img, p.viewport, crop)
	}
}

func TestClampFocusKeepsCoverage(t *testing.T) {
	corners := []Point{{0, 0}, {1, 1}, {0, 1}, {1, 0}, Center, {2, -1}}
	for _, p := range sizePairs {
		for _, scale := range []float64{1, 1.3, 2} {
			for _, c := range corners {
				f := ClampFocus(c, p.img, p.viewport, scale)
				assert.True(t, Covers(p.img, p.viewport, scale, f), "%v %v scale %v focus %v", p.img, p.viewport, scale, f)
			}
		}
	}
}

func TestCoversRejectsUnderscale(t *testing.T) {
	assert.False(t, Covers(Size{300, 200}, Size{100, 100}, 0.9, Center))
}

func TestResolveAnchorsNone(t *testing.T) {
	regions := []Rect{{X: 200, Y: 0, W: 100, H: 200}}
	assert.Equal(t, []Point{Center}, ResolveAnchors(Size{300, 200}, config.FaceModeNone, regions))
}

func TestResolveAnchorsBiggestBiasedRight(t *testing.T) {
	regions := []Rect{{X: 200, Y: 0, W: 100, H: 200}}
	anchors := ResolveAnchors(Size{300, 200}, config.FaceModeBiggest, regions)

	assert.Len(t, anchors, 1)
	assert.Greater(t, anchors[0].X, 0.5)
	assert.InDelta(t, 0.5, anchors[0].Y, 1e-12)
}

func TestResolveAnchorsBiggestPicksLargest(t *testing.T) {
	regions := []Rect{
		{X: 0, Y: 0, W: 10, H: 10},
		{X: 100, Y: 100, W: 50, H: 50},
		{X: 250, Y: 0, W: 20, H: 20},
	}
	anchors := ResolveAnchors(Size{300, 200}, config.FaceModeBiggest, regions)
	assert.InDelta(t, 125.0/300, anchors[0].X, 1e-12)
	assert.InDelta(t, 125.0/200, anchors[0].Y, 1e-12)
}

func TestResolveAnchorsGroupUsesBoundingBox(t *testing.T) {
	regions := []Rect{
		{X: 0, Y: 0, W: 10, H: 10},
		{X: 290, Y: 190, W: 10, H: 10},
	}
	anchors := ResolveAnchors(Size{300, 200}, config.FaceModeGroup, regions)
	assert.InDelta(t, 0.5, anchors[0].X, 1e-12)
	assert.InDelta(t, 0.5, anchors[0].Y, 1e-12)
}

func TestResolveAnchorsFallsBackToCenter(t *testing.T) {
	for _, mode := range []config.FaceMode{config.FaceModeBiggest, config.FaceModeGroup} {
		assert.Equal(t, []Point{Center}, ResolveAnchors(Size{300, 200}, mode, nil))
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
