// Package random injects deviation into scale and duration choices.
package random

import (
	"math/rand"
	"time"
)

// Generator draws uniform values. Implementations are used from a single
// goroutine and need no locking.
type Generator interface {
	// Float64 returns a uniform value in [min, max]. min == max returns min.
	Float64(min, max float64) float64
	// Bool is a fair coin flip.
	Bool() bool
}

// Source is a Generator backed by math/rand.
type Source struct {
	r *rand.Rand
}

// New seeds a Source. A zero seed uses the clock.
func New(seed int64) *Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Source{r: rand.New(rand.NewSource(seed))}
}

func (s *Source) Float64(min, max float64) float64 {
	if max <= min {
		return min
	}
	v := min + s.r.Float64()*(max-min)
	if v > max {
		v = max
	}
	return v
}

func (s *Source) Bool() bool {
	return s.r.Intn(2) == 1
}

// Deviate returns base + uniform(-dev, +dev); base itself when dev <= 0.
func Deviate(g Generator, base, dev time.Duration) time.Duration {
	if dev <= 0 {
		return base
	}
	offset := g.Float64(-dev.Seconds(), dev.Seconds())
	return base + time.Duration(offset*float64(time.Second))
}
