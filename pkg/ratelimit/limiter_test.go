package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindow(t *testing.T) {
	clock := time.Unix(1650000000, 0)
	sw := NewSlidingWindow(3, time.Minute)
	sw.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		assert.True(t, sw.Allow(), "request %d", i+1)
	}
	assert.False(t, sw.Allow(), "limit reached")

	clock = clock.Add(30 * time.Second)
	assert.False(t, sw.Allow(), "window has not slid yet")

	clock = clock.Add(31 * time.Second)
	assert.True(t, sw.Allow(), "window slid")

	sw.Reset()
	assert.Empty(t, sw.requests)
}

func TestWaitReturnsWhenSlotFrees(t *testing.T) {
	sw := NewSlidingWindow(1, 50*time.Millisecond)
	require.NoError(t, sw.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, sw.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestWaitHonoursCancellation(t *testing.T) {
	sw := PerMinute(1)
	require.True(t, sw.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := sw.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
