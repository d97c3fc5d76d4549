// Package pending holds an item that may arrive later than it is needed.
package pending

import (
	"sync"

	"github.com/ivlev/kenburns/internal/media"
)

// Item is a single-assignment cell. The ready callback runs exactly once:
// on Set if it was registered first, on OnReady if the value came first.
type Item struct {
	mu      sync.Mutex
	item    *media.Item
	onReady func(media.Item)
	fired   bool
}

// New returns an empty cell.
func New() *Item {
	return &Item{}
}

// Resolved returns a cell that already holds it.
func Resolved(it media.Item) *Item {
	p := New()
	p.Set(&it)
	return p
}

// Set stores the value. A nil value marks the cell not ready, meaning no
// item is available.
func (p *Item) Set(it *media.Item) {
	p.mu.Lock()
	if it == nil {
		p.item = nil
		p.mu.Unlock()
		return
	}
	v := *it
	p.item = &v
	fn := p.take()
	p.mu.Unlock()

	if fn != nil {
		fn(v)
	}
}

// OnReady registers the callback, invoking it right away when the value is
// already there.
func (p *Item) OnReady(fn func(media.Item)) {
	p.mu.Lock()
	p.onReady = fn
	var v media.Item
	if p.item != nil {
		v = *p.item
	}
	fn = p.take()
	p.mu.Unlock()

	if fn != nil {
		fn(v)
	}
}

// Value returns the item if ready.
func (p *Item) Value() (media.Item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.item == nil {
		return media.Item{}, false
	}
	return *p.item, true
}

// Ready reports whether a value is set.
func (p *Item) Ready() bool {
	_, ok := p.Value()
	return ok
}

// take returns the callback if it is due and marks it spent. Callers hold mu.
func (p *Item) take() func(media.Item) {
	if p.fired || p.item == nil || p.onReady == nil {
		return nil
	}
	p.fired = true
	fn := p.onReady
	p.onReady = nil
	return fn
}
