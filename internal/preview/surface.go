// Package preview renders the slideshow headlessly: it keeps the state the
// scheduler pushes into its two slots and composes RGBA frames on demand.
package preview

import (
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"golang.org/x/image/draw"

	"github.com/ivlev/kenburns/internal/animation"
	"github.com/ivlev/kenburns/internal/clock"
	"github.com/ivlev/kenburns/internal/geometry"
	"github.com/ivlev/kenburns/internal/media"
	"github.com/ivlev/kenburns/internal/scheduler"
	"github.com/ivlev/kenburns/internal/system"
)

var (
	placeholder = color.RGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xff}
	regionColor = color.RGBA{R: 0xff, G: 0xd0, B: 0x00, A: 0xff}
)

type fade struct {
	from, to float64
	start    time.Duration
	length   time.Duration
}

type slot struct {
	item    media.Item
	present bool

	plan      animation.Plan
	animating bool
	planStart time.Duration

	opacity float64
	fade    *fade

	regions []geometry.Rect
}

// Surface implements scheduler.Surface and scheduler.Overlay. All times are
// measured on an internal clock that stands still while paused.
type Surface struct {
	mu sync.Mutex

	clk    clock.Clock
	origin time.Time
	frozen time.Duration
	held   time.Duration
	paused bool

	bounds image.Rectangle
	slots  [2]slot
	top    scheduler.Slot

	motion ease.TweenFunc
	blend  ease.TweenFunc
	pool   *system.ImagePool
	logger zerolog.Logger
}

// Option configures a Surface.
type Option func(*Surface)

func WithClock(c clock.Clock) Option {
	return func(s *Surface) { s.clk = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Surface) { s.logger = l }
}

// WithMotionEasing reshapes pan/zoom progress. Linear by default.
func WithMotionEasing(fn ease.TweenFunc) Option {
	return func(s *Surface) { s.motion = fn }
}

// WithFadeEasing reshapes crossfade opacity. InOutQuad by default.
func WithFadeEasing(fn ease.TweenFunc) Option {
	return func(s *Surface) { s.blend = fn }
}

func WithPool(p *system.ImagePool) Option {
	return func(s *Surface) { s.pool = p }
}

// New returns a surface of width x height pixels.
func New(width, height int, opts ...Option) *Surface {
	s := &Surface{
		clk:    clock.Real{},
		bounds: image.Rect(0, 0, width, height),
		motion: ease.Linear,
		blend:  ease.InOutQuad,
		pool:   system.NewImagePool(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.origin = s.clk.Now()
	s.logger = s.logger.With().Str("component", "preview").Logger()
	return s
}

// now is the elapsed surface time. Caller holds mu.
func (s *Surface) now() time.Duration {
	if s.paused {
		return s.frozen
	}
	return s.clk.Now().Sub(s.origin) - s.held
}

func (s *Surface) Viewport() geometry.Size {
	return geometry.SizeOf(s.bounds)
}

func (s *Surface) Show(sl scheduler.Slot, item media.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &s.slots[sl]
	st.item = item
	st.present = true
	st.animating = false
	st.regions = nil
	s.logger.Debug().Stringer("slot", sl).Str("item", item.ID).Msg("show")
}

func (s *Surface) Animate(sl scheduler.Slot, plan animation.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &s.slots[sl]
	st.plan = plan
	st.animating = true
	st.planStart = s.now()
}

func (s *Surface) ResetTransform(sl scheduler.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[sl].animating = false
}

func (s *Surface) SetOpacity(sl scheduler.Slot, opacity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &s.slots[sl]
	st.opacity = clamp01(opacity)
	st.fade = nil
	if st.opacity >= 1 {
		s.top = sl
	}
}

func (s *Surface) Crossfade(out, in scheduler.Slot, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.startFade(out, 0, now, d)
	s.startFade(in, 1, now, d)
	s.top = in
}

func (s *Surface) startFade(sl scheduler.Slot, to float64, now, d time.Duration) {
	st := &s.slots[sl]
	from := s.opacityAt(st, now)
	st.fade = &fade{from: from, to: to, start: now, length: d}
	st.opacity = from
}

func (s *Surface) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return
	}
	s.frozen = s.now()
	s.paused = true
}

func (s *Surface) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return
	}
	s.paused = false
	s.held = s.clk.Now().Sub(s.origin) - s.frozen
}

func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.slots {
		op := s.opacityAt(&s.slots[i], s.now())
		s.slots[i] = slot{opacity: op}
	}
}

// DrawRegions implements scheduler.Overlay.
func (s *Surface) DrawRegions(sl scheduler.Slot, regions []geometry.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[sl].regions = append([]geometry.Rect(nil), regions...)
}

// CleanUp implements scheduler.Overlay.
func (s *Surface) CleanUp(sl scheduler.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[sl].regions = nil
}

// Opacity reports the slot's current opacity.
func (s *Surface) Opacity(sl scheduler.Slot) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opacityAt(&s.slots[sl], s.now())
}

// Camera reports the pan/zoom state of the slot right now. Slots without a
// running plan sit at aspect fill, centered.
func (s *Surface) Camera(sl scheduler.Slot) animation.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cameraAt(&s.slots[sl], s.now())
}

// Item reports what the slot shows.
func (s *Surface) Item(sl scheduler.Slot) (media.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[sl].item, s.slots[sl].present
}

func (s *Surface) opacityAt(st *slot, now time.Duration) float64 {
	f := st.fade
	if f == nil {
		return st.opacity
	}
	elapsed := now - f.start
	if f.length <= 0 || elapsed >= f.length {
		return f.to
	}
	if elapsed <= 0 {
		return f.from
	}
	tw := gween.New(float32(f.from), float32(f.to), float32(f.length.Seconds()), s.blend)
	v, _ := tw.Update(float32(elapsed.Seconds()))
	return clamp01(float64(v))
}

func (s *Surface) cameraAt(st *slot, now time.Duration) animation.State {
	if !st.animating {
		return animation.State{Scale: 1, Focus: geometry.Center}
	}
	return st.plan.StateAt(now-st.planStart, s.motion)
}

// Frame composes the current picture. Hand it back with Release when done.
func (s *Surface) Frame() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.pool.Get(s.bounds)
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)

	now := s.now()
	for _, sl := range []scheduler.Slot{s.top.Other(), s.top} {
		st := &s.slots[sl]
		if !st.present {
			continue
		}
		alpha := s.opacityAt(st, now)
		if alpha <= 0 {
			continue
		}
		mask := image.NewUniform(color.Alpha{A: uint8(math.Round(alpha * 0xff))})
		s.compose(dst, st, now, mask)
	}
	return dst
}

// Release returns a frame obtained from Frame.
func (s *Surface) Release(frame *image.RGBA) {
	s.pool.Put(frame)
}

func (s *Surface) compose(dst *image.RGBA, st *slot, now time.Duration, mask image.Image) {
	if st.item.Kind == media.KindVideo || st.item.Image == nil {
		draw.DrawMask(dst, dst.Bounds(), image.NewUniform(placeholder), image.Point{}, mask, image.Point{}, draw.Over)
		return
	}

	img := st.item.Image
	size := geometry.SizeOf(img.Bounds())
	viewport := s.Viewport()
	cam := s.cameraAt(st, now)
	crop := geometry.CropRect(size, viewport, cam.Scale, cam.Focus)

	o := img.Bounds().Min
	src := image.Rect(
		o.X+int(math.Floor(crop.X)), o.Y+int(math.Floor(crop.Y)),
		o.X+int(math.Ceil(crop.X+crop.W)), o.Y+int(math.Ceil(crop.Y+crop.H)),
	).Intersect(img.Bounds())
	if src.Empty() {
		return
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, src, draw.Over, &draw.Options{DstMask: mask})

	for _, r := range st.regions {
		outline(dst, project(r, crop, viewport), regionColor)
	}
}

// project maps a rectangle in image pixels onto the viewport for crop.
func project(r, crop geometry.Rect, viewport geometry.Size) image.Rectangle {
	if crop.W <= 0 || crop.H <= 0 {
		return image.Rectangle{}
	}
	sx, sy := viewport.W/crop.W, viewport.H/crop.H
	return image.Rect(
		int(math.Round((r.X-crop.X)*sx)), int(math.Round((r.Y-crop.Y)*sy)),
		int(math.Round((r.X+r.W-crop.X)*sx)), int(math.Round((r.Y+r.H-crop.Y)*sy)),
	)
}

func outline(dst *image.RGBA, r image.Rectangle, c color.Color) {
	const width = 2
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width),
		image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y),
		image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
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
