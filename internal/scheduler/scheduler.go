// Package scheduler runs the slideshow. It alternates two display slots,
// prefetches the next item while the current one animates and crossfades
// on a pausable timer.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ivlev/kenburns/internal/analyzer"
	"github.com/ivlev/kenburns/internal/animation"
	"github.com/ivlev/kenburns/internal/clock"
	"github.com/ivlev/kenburns/internal/config"
	"github.com/ivlev/kenburns/internal/media"
	"github.com/ivlev/kenburns/internal/pending"
	"github.com/ivlev/kenburns/internal/random"
	"github.com/ivlev/kenburns/internal/source"
)

// State of the slideshow.
type State int

const (
	Idle State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s Slot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is a snapshot of the scheduler.
type Status struct {
	State   State  `json:"state"`
	Index   int    `json:"index"`
	Count   int    `json:"count"`
	Visible Slot   `json:"visible"`
	ItemID  string `json:"item_id,omitempty"`
	// Remaining is the time left before the next crossfade starts.
	Remaining   time.Duration `json:"-"`
	RemainingMS int64         `json:"remaining_ms"`
}

// slotState tracks what a slot shows and which player it owns. held marks
// a player stopped by Pause that Resume has to restart.
type slotState struct {
	item    *media.Item
	player  media.Player
	playing bool
	held    bool
}

// request is an outstanding fetch. empty is set when the source answered
// with nothing.
type request struct {
	cell  *pending.Item
	empty bool
}

// Scheduler drives the transitions. Every exported method is safe for
// concurrent use; the work itself runs on a single control goroutine.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	loop   *loop
	pulls  *loop // serializes SequentialSource calls
	notify *notifier

	feed      source.Feed
	surface   Surface
	clock     clock.Clock
	log       zerolog.Logger
	rng       random.Generator
	detector  analyzer.Detector
	overlay   Overlay
	observers []any
	recorder  Recorder
	factory   PlannerFactory

	// Owned by the control goroutine.
	cfg        config.Config
	planner    animation.Planner
	state      State
	index      int
	count      int
	epoch      uint64
	visible    Slot
	slots      [2]slotState
	shown      *media.Item
	current    *request
	next       *request
	cycleStart time.Time
	transition *clock.Timer
	fade       *clock.Timer
}

// New creates an idle scheduler. The configuration is checked at Start.
func New(ctx context.Context, feed source.Feed, surface Surface, cfg config.Config, opts ...func(*Scheduler)) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	s := &Scheduler{
		ctx:      ctx,
		cancel:   cancel,
		loop:     newLoop(),
		pulls:    newLoop(),
		feed:     feed,
		surface:  surface,
		clock:    clock.Real{},
		log:      zerolog.Nop(),
		recorder: nopRecorder{},
		factory:  defaultPlannerFactory,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = random.New(cfg.Seed)
	}
	s.log = s.log.With().Str("component", "scheduler").Logger()
	s.notify = newNotifier(s.observers, s.log)
	s.recorder.State(Idle.String())

	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		s.loop.run(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.pulls.run(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.notify.run(ctx)
	}()
	return s
}

// Start begins the slideshow from the current index. It panics when the
// configured durations are invalid; nothing is armed in that case. An empty
// source leaves the scheduler idle.
func (s *Scheduler) Start() error {
	return s.do(s.start)
}

// Stop cancels pending transitions and clears the surface. Safe in any
// state.
func (s *Scheduler) Stop() error {
	return s.loop.call(s.stop)
}

// Pause freezes animations and timers, keeping their progress.
func (s *Scheduler) Pause() error {
	return s.loop.call(s.pause)
}

// Resume continues from where Pause left off.
func (s *Scheduler) Resume() error {
	return s.loop.call(s.resume)
}

// Next skips to the following item: it fires the armed crossfade early, or
// restarts from the next index when none is armed.
func (s *Scheduler) Next() error {
	return s.do(s.skipForward)
}

// Previous restarts from the item before the one on screen.
func (s *Scheduler) Previous() error {
	return s.do(s.skipBack)
}

// SetConfig swaps the configuration and rebuilds the planner. Range errors
// are returned; a duration setup that cannot be scheduled panics.
func (s *Scheduler) SetConfig(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrInvalidDurations) {
			panic(err)
		}
		return fmt.Errorf("set config: %w", err)
	}
	return s.loop.call(func() {
		s.cfg = cfg
		s.planner = s.buildPlanner()
	})
}

// Config returns the active configuration.
func (s *Scheduler) Config() (config.Config, error) {
	var cfg config.Config
	err := s.loop.call(func() { cfg = s.cfg })
	return cfg, err
}

// Status reports the current state.
func (s *Scheduler) Status() (Status, error) {
	var st Status
	err := s.loop.call(func() {
		st = Status{
			State:     s.state,
			Index:     s.index,
			Count:     s.count,
			Visible:   s.visible,
			Remaining: s.transition.Remaining(),
		}
		st.RemainingMS = st.Remaining.Milliseconds()
		if s.shown != nil {
			st.ItemID = s.shown.ID
		}
	})
	return st, err
}

// Close stops the slideshow, pauses every owned player and waits for the
// scheduler goroutines to exit.
func (s *Scheduler) Close() error {
	err := s.loop.call(func() {
		s.stop()
		s.halt(SlotA)
		s.halt(SlotB)
	})
	s.cancel()
	s.wg.Wait()
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

// do runs f on the loop and raises a duration-invariant violation in the
// caller's goroutine.
func (s *Scheduler) do(f func() error) error {
	var err error
	if cerr := s.loop.call(func() { err = f() }); cerr != nil {
		return cerr
	}
	if err != nil {
		panic(err)
	}
	return nil
}

func (s *Scheduler) start() error {
	if err := s.cfg.ValidateDurations(); err != nil {
		return err
	}
	s.stop()
	// Slot B is hidden until the first crossfade.
	s.release(SlotB)

	switch f := s.feed.(type) {
	case source.IndexedFeed:
		s.count = f.Source.Count()
	case source.SequentialFeed:
		s.pulls.async(f.Source.Reset)
		s.count = -1
	}
	if s.count == 0 {
		s.log.Info().Msg("source has no items, staying idle")
		return nil
	}
	if s.index < 0 || (s.count > 0 && s.index >= s.count) {
		s.index = 0
	}

	s.planner = s.buildPlanner()
	s.visible = SlotA
	s.surface.SetOpacity(SlotA, 1)
	s.surface.SetOpacity(SlotB, 0)
	s.setState(Running)
	s.log.Info().Int("index", s.index).Int("count", s.count).Msg("slideshow started")

	s.advance(s.fetch(s.index), SlotA, SlotB)
	return nil
}

func (s *Scheduler) stop() {
	s.transition.Cancel()
	s.fade.Cancel()
	s.transition, s.fade = nil, nil
	s.epoch++
	s.current, s.next, s.shown = nil, nil, nil
	s.slots[SlotA].held, s.slots[SlotB].held = false, false
	s.release(s.visible.Other())
	s.surface.Clear()
	if s.cfg.ShowFaceRegions && s.overlay != nil {
		s.overlay.CleanUp(SlotA)
		s.overlay.CleanUp(SlotB)
	}
	if s.state != Idle {
		s.log.Info().Msg("slideshow stopped")
	}
	s.setState(Idle)
}

func (s *Scheduler) pause() {
	if s.state != Running {
		return
	}
	s.transition.Pause()
	s.fade.Pause()
	s.surface.Pause()
	for i := range s.slots {
		if sl := &s.slots[i]; sl.playing {
			sl.player.Pause()
			sl.playing, sl.held = false, true
		}
	}
	s.setState(Paused)
}

func (s *Scheduler) resume() {
	if s.state != Paused {
		return
	}
	s.transition.Resume()
	s.fade.Resume()
	s.surface.Resume()
	for i := range s.slots {
		if sl := &s.slots[i]; sl.held && sl.player != nil {
			sl.player.Play()
			sl.playing, sl.held = true, false
		}
	}
	s.setState(Running)
}

func (s *Scheduler) skipForward() error {
	if s.transition.Active() {
		s.resume()
		s.transition.Fire()
		return nil
	}
	s.stop()
	s.incrementIndex()
	return s.start()
}

func (s *Scheduler) skipBack() error {
	s.stop()
	s.halt(s.visible)
	s.index -= 2
	if s.index < 0 {
		s.index = 0
	}
	return s.start()
}

// advance waits for req and presents it in slot, while the item after it is
// prefetched for the other slot.
func (s *Scheduler) advance(req *request, slot, other Slot) {
	s.incrementIndex()
	s.current = req
	s.next = s.fetch(s.index)
	s.cycleStart = s.clock.Now()

	epoch := s.epoch
	req.cell.OnReady(func(item media.Item) {
		if epoch != s.epoch {
			return
		}
		s.present(item, slot, other)
	})
}

func (s *Scheduler) present(item media.Item, slot, other Slot) {
	fade := random.Deviate(s.rng, s.cfg.TransitionAnimationDuration, s.cfg.TransitionAnimationDurationDeviation)
	s.assign(slot, item)
	s.shown = &item
	s.current = nil

	var window time.Duration
	if item.Kind == media.KindVideo {
		s.surface.ResetTransform(slot)
		if item.Player != nil {
			item.Player.SeekToStart()
			if s.state == Running {
				item.Player.Play()
				s.slots[slot].playing = true
			} else {
				s.slots[slot].held = true
			}
		}
		window = item.PlaybackWindow(s.cfg.ImageAnimationDuration)
	} else {
		plan, err := s.planner.Plan(item, s.surface.Viewport())
		if err != nil {
			s.log.Warn().Err(err).Str("item", item.ID).Msg("planning failed, holding a static frame")
			d := item.Duration
			if d <= 0 {
				d = s.cfg.ImageAnimationDuration
			}
			plan = animation.Static(d)
		}
		s.surface.Animate(slot, plan)
		if s.cfg.ShowFaceRegions && s.overlay != nil {
			s.overlay.DrawRegions(slot, plan.Regions)
		}
		window = plan.Duration
	}

	latency := s.clock.Now().Sub(s.cycleStart)
	if latency < 0 {
		latency = 0
	}
	s.recorder.Latency(latency)

	delay := window - fade/2 - latency
	if delay < 0 {
		delay = 0
	}
	s.log.Debug().
		Str("item", item.ID).
		Stringer("kind", item.Kind).
		Stringer("slot", slot).
		Dur("window", window).
		Dur("fade", fade).
		Dur("latency", latency).
		Dur("delay", delay).
		Msg("presenting")

	s.transition = clock.NewTimer(s.clock, delay, s.loop.async, func() {
		s.crossfade(item, slot, other, fade)
	})
	if s.state == Paused {
		s.transition.Pause()
	}
	s.fillMissing(s.next)
}

// crossfade swaps the slots and moves on to the prefetched item.
func (s *Scheduler) crossfade(item media.Item, out, in Slot, fade time.Duration) {
	s.notify.started(item)
	s.recorder.Transition(item.Kind.String())

	// A short window can outrun the previous crossfade; finish it first.
	s.fade.Fire()

	s.surface.Crossfade(out, in, fade)
	s.visible = in
	s.fade = clock.NewTimer(s.clock, fade, s.loop.async, func() {
		s.crossfaded(item, out)
	})
	s.advance(s.next, in, out)
}

func (s *Scheduler) crossfaded(item media.Item, slot Slot) {
	if item.Player != nil && s.slots[slot].player == item.Player {
		s.halt(slot)
	}
	if s.cfg.ShowFaceRegions && s.overlay != nil && item.Kind == media.KindImage && s.visible != slot {
		s.overlay.CleanUp(slot)
	}
	s.notify.finished()
}

// assign puts item in slot. The slot's previous player is paused unless the
// item reuses it, and a player still owned by the other slot moves here.
func (s *Scheduler) assign(slot Slot, item media.Item) {
	cur := &s.slots[slot]
	if cur.player != nil && cur.player != item.Player {
		s.halt(slot)
	}
	if o := &s.slots[slot.Other()]; item.Player != nil && o.player == item.Player {
		*o = slotState{item: o.item}
	}
	cur.item = &item
	cur.player = item.Player
	s.surface.Show(slot, item)
}

// halt pauses the player owned by slot, if any.
func (s *Scheduler) halt(slot Slot) {
	sl := &s.slots[slot]
	if sl.player != nil {
		sl.player.Pause()
	}
	sl.playing, sl.held = false, false
}

// release halts slot and drops what it holds.
func (s *Scheduler) release(slot Slot) {
	s.halt(slot)
	s.slots[slot] = slotState{}
}

// fetch asks the source for the item at index. Sequential sources ignore
// the index.
func (s *Scheduler) fetch(index int) *request {
	req := &request{cell: pending.New()}
	epoch := s.epoch
	deliver := func(it *media.Item) {
		s.loop.async(func() { s.deliver(epoch, req, it) })
	}

	switch f := s.feed.(type) {
	case source.IndexedFeed:
		f.Source.Fetch(s.ctx, index, deliver)
	case source.SequentialFeed:
		s.pulls.async(func() {
			it, ok := f.Source.Next(s.ctx)
			if !ok {
				deliver(nil)
				return
			}
			deliver(&it)
		})
	}
	return req
}

func (s *Scheduler) deliver(epoch uint64, req *request, it *media.Item) {
	if epoch != s.epoch {
		return
	}
	if it != nil {
		req.cell.Set(it)
		return
	}
	req.cell.Set(nil)
	req.empty = true
	s.fillMissing(req)
}

// fillMissing resolves a request the source answered with nothing by
// repeating the item on screen. With nothing on screen yet, a missing first
// item stops the slideshow and a missing prefetch waits for the first
// present.
func (s *Scheduler) fillMissing(req *request) {
	if req == nil || !req.empty || req.cell.Ready() {
		return
	}
	if s.shown == nil {
		if req == s.current {
			s.log.Info().Msg("source returned no first item, staying idle")
			s.stop()
		}
		return
	}
	s.log.Warn().Str("repeat", s.shown.ID).Msg("source returned no item")
	s.recorder.PrefetchMiss()
	req.cell.Set(s.shown)
}

func (s *Scheduler) incrementIndex() {
	if s.count <= 0 {
		return
	}
	s.index = (s.index + 1) % s.count
}

func (s *Scheduler) buildPlanner() animation.Planner {
	det := s.detector
	if det == nil {
		d, err := analyzer.NewDetector(s.cfg.Detector)
		if err != nil {
			s.log.Warn().Err(err).Msg("detector unavailable, anchoring on the center")
			d = analyzer.None{}
		}
		det = d
	}
	return s.factory(s.cfg, s.rng, det, s.log)
}

func (s *Scheduler) setState(st State) {
	s.state = st
	s.recorder.State(st.String())
}
