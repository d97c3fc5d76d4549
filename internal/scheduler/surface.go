package scheduler

import (
	"time"

	"github.com/ivlev/kenburns/internal/animation"
	"github.com/ivlev/kenburns/internal/geometry"
	"github.com/ivlev/kenburns/internal/media"
)

// Slot is one of the two alternating display targets.
type Slot int

const (
	SlotA Slot = iota
	SlotB
)

func (s Slot) Other() Slot {
	return 1 - s
}

func (s Slot) String() string {
	if s == SlotB {
		return "B"
	}
	return "A"
}

// Surface renders the two slots. The scheduler calls it only from its
// control goroutine.
type Surface interface {
	Viewport() geometry.Size
	// Show swaps the slot's visual content to item.
	Show(slot Slot, item media.Item)
	// Animate plays plan on the slot, replacing any running transform.
	Animate(slot Slot, plan animation.Plan)
	ResetTransform(slot Slot)
	SetOpacity(slot Slot, opacity float64)
	// Crossfade fades from out to 0 and in to 1 over d.
	Crossfade(out, in Slot, d time.Duration)
	// Pause freezes every running animation in place; Resume continues it.
	Pause()
	Resume()
	// Clear drops all in-flight transforms and fades.
	Clear()
}

// Overlay draws debug rectangles over the anchor regions of a slot.
type Overlay interface {
	DrawRegions(slot Slot, regions []geometry.Rect)
	CleanUp(slot Slot)
}

// StartObserver is notified when a crossfade away from item begins.
type StartObserver interface {
	TransitionStarted(item media.Item)
}

// FinishObserver is notified when a crossfade completes.
type FinishObserver interface {
	TransitionFinished()
}

// Recorder receives scheduler measurements. telemetry.Metrics implements it.
type Recorder interface {
	Transition(kind string)
	PrefetchMiss()
	Latency(d time.Duration)
	State(state string)
}

type nopRecorder struct{}

func (nopRecorder) Transition(string)     {}
func (nopRecorder) PrefetchMiss()         {}
func (nopRecorder) Latency(time.Duration) {}
func (nopRecorder) State(string)          {}
