package clock

import "time"

// Timer is a one-shot timer that can be paused and resumed without losing
// elapsed time. It is not safe for concurrent use: every method, and the
// callback, run on the owner's control goroutine. dispatch marshals the
// underlying clock's fire onto that goroutine.
//
// Each arm gets a generation number. A fire that was already queued when the
// timer was paused, re-armed or cancelled carries a stale generation and is
// dropped, so a cancelled timer never runs its callback.
type Timer struct {
	clock    Clock
	dispatch func(func())
	fn       func()

	remaining time.Duration
	armedAt   time.Time
	stopper   Stopper
	gen       uint64
	state     timerState
}

type timerState int

const (
	timerRunning timerState = iota
	timerPaused
	timerDone
)

// NewTimer arms a timer that calls fn after d.
func NewTimer(c Clock, d time.Duration, dispatch func(func()), fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	t := &Timer{clock: c, dispatch: dispatch, fn: fn, remaining: d}
	t.arm()
	return t
}

func (t *Timer) arm() {
	t.gen++
	gen := t.gen
	t.state = timerRunning
	t.armedAt = t.clock.Now()
	t.stopper = t.clock.AfterFunc(t.remaining, func() {
		t.dispatch(func() { t.fire(gen) })
	})
}

func (t *Timer) fire(gen uint64) {
	if gen != t.gen || t.state != timerRunning {
		return
	}
	t.state = timerDone
	t.remaining = 0
	t.fn()
}

// Pause freezes the countdown. No-op unless running.
func (t *Timer) Pause() {
	if t == nil || t.state != timerRunning {
		return
	}
	t.stopper.Stop()
	t.gen++
	t.remaining -= t.clock.Now().Sub(t.armedAt)
	if t.remaining < 0 {
		t.remaining = 0
	}
	t.state = timerPaused
}

// Resume continues a paused countdown from where it stopped.
func (t *Timer) Resume() {
	if t == nil || t.state != timerPaused {
		return
	}
	t.arm()
}

// Cancel discards the timer; its callback will not run.
func (t *Timer) Cancel() {
	if t == nil || t.state == timerDone {
		return
	}
	if t.stopper != nil {
		t.stopper.Stop()
	}
	t.gen++
	t.state = timerDone
}

// Fire runs the callback now if the timer is still pending, running or
// paused, and retires it.
func (t *Timer) Fire() bool {
	if t == nil || t.state == timerDone {
		return false
	}
	t.Cancel()
	t.fn()
	return true
}

// Active reports whether the callback is still due.
func (t *Timer) Active() bool {
	return t != nil && t.state != timerDone
}

// Paused reports whether the countdown is frozen.
func (t *Timer) Paused() bool {
	return t != nil && t.state == timerPaused
}

// Remaining is the time left before the callback runs.
func (t *Timer) Remaining() time.Duration {
	switch {
	case t == nil || t.state == timerDone:
		return 0
	case t.state == timerPaused:
		return t.remaining
	}
	left := t.remaining - t.clock.Now().Sub(t.armedAt)
	if left < 0 {
		return 0
	}
	return left
}
