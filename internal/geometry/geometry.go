// Package geometry resolves scale bounds and focus anchors for a pan/zoom
// animation of an image inside a viewport.
//
// Scales are normalized to the aspect-fill scale: at 1.0 the image exactly
// covers the viewport along its tighter dimension. Focus points are the
// center of the visible crop in normalized image space [0,1]x[0,1].
package geometry

import (
	"image"
	"math"

	"github.com/ivlev/kenburns/internal/config"
)

const epsilon = 1e-9

// Size is a width/height pair in pixels.
type Size struct {
	W, H float64
}

// SizeOf returns the pixel size of an image.Rectangle.
func SizeOf(r image.Rectangle) Size {
	return Size{W: float64(r.Dx()), H: float64(r.Dy())}
}

// Empty reports whether either dimension is not positive.
func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

// Point is a normalized or pixel coordinate depending on context.
type Point struct {
	X, Y float64
}

// Center is the middle of the image in normalized space.
var Center = Point{X: 0.5, Y: 0.5}

// Rect is an axis-aligned rectangle in image pixel space.
type Rect struct {
	X, Y, W, H float64
}

// RectOf converts an image.Rectangle.
func RectOf(r image.Rectangle) Rect {
	return Rect{X: float64(r.Min.X), Y: float64(r.Min.Y), W: float64(r.Dx()), H: float64(r.Dy())}
}

func (r Rect) Area() float64 {
	return r.W * r.H
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.W, o.X+o.W)
	maxY := math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Bounds is the allowed scale range for one image/viewport pair.
type Bounds struct {
	Fill float64 // pixel scale at which the image just covers the viewport
	Min  float64
	Max  float64
}

// ResolveBounds computes the scale range. Min is always 1.0 (aspect fill)
// and Max = Min * (1 + deviation).
func ResolveBounds(img, viewport Size, deviation float64) Bounds {
	fill := FillScale(img, viewport)
	if deviation < 0 {
		deviation = 0
	}
	return Bounds{Fill: fill, Min: 1.0, Max: 1.0 * (1 + deviation)}
}

// FillScale is max(viewport.W/img.W, viewport.H/img.H).
func FillScale(img, viewport Size) float64 {
	if img.Empty() || viewport.Empty() {
		return 1.0
	}
	return math.Max(viewport.W/img.W, viewport.H/img.H)
}

// ResolveAnchors returns the candidate focus points for the face mode.
// Without regions, or in FaceModeNone, the only candidate is the center.
func ResolveAnchors(img Size, mode config.FaceMode, regions []Rect) []Point {
	if img.Empty() || len(regions) == 0 {
		return []Point{Center}
	}

	var target Rect
	switch mode {
	case config.FaceModeBiggest:
		target = regions[0]
		for _, r := range regions[1:] {
			if r.Area() > target.Area() {
				target = r
			}
		}
	case config.FaceModeGroup:
		target = regions[0]
		for _, r := range regions[1:] {
			target = target.Union(r)
		}
	default:
		return []Point{Center}
	}

	c := target.Center()
	return []Point{{X: clamp01(c.X / img.W), Y: clamp01(c.Y / img.H)}}
}

// FocusLimits returns the range a focus point may take at the given scale
// without the visible crop leaving the image.
func FocusLimits(img, viewport Size, scale float64) (lo, hi Point) {
	hx, hy := halfCrop(img, viewport, scale)
	return Point{X: hx, Y: hy}, Point{X: 1 - hx, Y: 1 - hy}
}

// ClampFocus moves p inside FocusLimits.
func ClampFocus(p Point, img, viewport Size, scale float64) Point {
	lo, hi := FocusLimits(img, viewport, scale)
	return Point{X: clamp(p.X, lo.X, hi.X), Y: clamp(p.Y, lo.Y, hi.Y)}
}

// Covers reports whether the viewport is fully covered by the image at the
// given scale and focus.
func Covers(img, viewport Size, scale float64, focus Point) bool {
	if scale < 1-epsilon {
		return false
	}
	lo, hi := FocusLimits(img, viewport, scale)
	return focus.X >= lo.X-epsilon && focus.X <= hi.X+epsilon &&
		focus.Y >= lo.Y-epsilon && focus.Y <= hi.Y+epsilon
}

// CropRect is the visible part of the image in pixel space.
func CropRect(img, viewport Size, scale float64, focus Point) Rect {
	hx, hy := halfCrop(img, viewport, scale)
	w, h := 2*hx*img.W, 2*hy*img.H
	return Rect{X: focus.X*img.W - w/2, Y: focus.Y*img.H - h/2, W: w, H: h}
}

// halfCrop is half of the crop size in normalized image units.
func halfCrop(img, viewport Size, scale float64) (float64, float64) {
	if img.Empty() || viewport.Empty() || scale <= 0 {
		return 0.5, 0.5
	}
	pixelScale := FillScale(img, viewport) * scale
	hx := viewport.W / pixelScale / img.W / 2
	hy := viewport.H / pixelScale / img.H / 2
	return math.Min(hx, 0.5), math.Min(hy, 0.5)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
