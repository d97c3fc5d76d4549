package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := newLoop()
	go l.run(ctx)

	var got []int
	l.async(func() { got = append(got, 1) })
	l.async(func() { got = append(got, 2) })
	require.NoError(t, l.call(func() { got = append(got, 3) }))

	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestLoopCallWaitsForFollowUps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := newLoop()
	go l.run(ctx)

	var got []string
	require.NoError(t, l.call(func() {
		got = append(got, "call")
		l.async(func() {
			got = append(got, "follow-up")
			l.async(func() { got = append(got, "nested") })
		})
	}))

	assert.Equal(t, []string{"call", "follow-up", "nested"}, got)
}

func TestLoopCallAfterClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := newLoop()
	go l.run(ctx)
	cancel()
	<-l.done

	assert.ErrorIs(t, l.call(func() {}), ErrClosed)
}
