package scheduler

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("scheduler is closed")

// loop serializes all state changes onto one goroutine. Tasks run in FIFO
// order; async never blocks, so it is safe from timer and source callbacks.
type loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	done  chan struct{}
}

func newLoop() *loop {
	return &loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (l *loop) run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
			l.drain()
		}
	}
}

// drain runs queued tasks until the queue is empty, including tasks that
// the drained ones enqueue.
func (l *loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		f := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()
		f()
	}
}

// async queues f.
func (l *loop) async(f func()) {
	l.mu.Lock()
	l.queue = append(l.queue, f)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// call runs f on the loop and waits for it, and for everything it queued,
// to finish. Must not be called from the loop itself.
func (l *loop) call(f func()) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}

	finished := make(chan struct{})
	l.async(func() {
		defer close(finished)
		f()
		l.drain()
	})

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	}
}
