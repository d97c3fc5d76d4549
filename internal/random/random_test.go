package random

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFloat64Range(t *testing.T) {
	g := New(42)
	for i := 0; i < 1000; i++ {
		v := g.Float64(1.0, 1.5)
		assert.GreaterOrEqual(t, v, 1.0)
		assert.LessOrEqual(t, v, 1.5)
	}
}

func TestFloat64CollapsedRange(t *testing.T) {
	g := New(7)
	assert.Equal(t, 1.0, g.Float64(1.0, 1.0))
	assert.Equal(t, 0.0, g.Float64(0, 0))
}

func TestDeviate(t *testing.T) {
	g := New(1)
	base := 10 * time.Second

	assert.Equal(t, base, Deviate(g, base, 0))

	dev := 2 * time.Second
	for i := 0; i < 1000; i++ {
		d := Deviate(g, base, dev)
		assert.GreaterOrEqual(t, d, base-dev)
		assert.LessOrEqual(t, d, base+dev)
	}
}

func TestBoolProducesBothSides(t *testing.T) {
	g := New(3)
	seen := map[bool]int{}
	for i := 0; i < 200; i++ {
		seen[g.Bool()]++
	}
	assert.NotZero(t, seen[true])
	assert.NotZero(t, seen[false])
}
