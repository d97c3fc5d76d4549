package pending

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivlev/kenburns/internal/media"
)

func TestSetThenOnReady(t *testing.T) {
	p := New()
	it := media.NewImage("a", nil)
	p.Set(&it)

	calls := 0
	p.OnReady(func(got media.Item) {
		calls++
		assert.Equal(t, "a", got.ID)
	})
	assert.Equal(t, 1, calls)
}

func TestOnReadyThenSet(t *testing.T) {
	p := New()
	calls := 0
	p.OnReady(func(got media.Item) {
		calls++
		assert.Equal(t, "b", got.ID)
	})
	assert.Zero(t, calls)

	it := media.NewImage("b", nil)
	p.Set(&it)
	assert.Equal(t, 1, calls)
}

func TestNeverInvokedTwice(t *testing.T) {
	p := New()
	calls := 0
	p.OnReady(func(media.Item) { calls++ })

	a, b := media.NewImage("a", nil), media.NewImage("b", nil)
	p.Set(&a)
	p.Set(&b)
	p.OnReady(func(media.Item) { calls++ })

	assert.Equal(t, 1, calls)
	v, ok := p.Value()
	assert.True(t, ok)
	assert.Equal(t, "b", v.ID)
}

func TestNilMarksNotReady(t *testing.T) {
	p := New()
	calls := 0
	p.OnReady(func(media.Item) { calls++ })

	p.Set(nil)
	assert.False(t, p.Ready())
	assert.Zero(t, calls)

	it := media.NewImage("late", nil)
	p.Set(&it)
	assert.True(t, p.Ready())
	assert.Equal(t, 1, calls)
}

func TestResolved(t *testing.T) {
	p := Resolved(media.NewImage("r", nil))
	assert.True(t, p.Ready())
}

func TestConcurrentSetAndRegister(t *testing.T) {
	for i := 0; i < 200; i++ {
		p := New()
		var mu sync.Mutex
		calls := 0

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			it := media.NewImage("x", nil)
			p.Set(&it)
		}()
		go func() {
			defer wg.Done()
			p.OnReady(func(media.Item) {
				mu.Lock()
				calls++
				mu.Unlock()
			})
		}()
		wg.Wait()

		assert.Equal(t, 1, calls)
	}
}
