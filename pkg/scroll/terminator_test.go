package scroll

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ttscraper/pkg/logger"
)

// fakeScroller replays offsets, repeating the last one forever
type fakeScroller struct {
	offsets    []int
	pos        int
	advances   int
	advanceErr error
	offsetErr  error
	onAdvance  func(n int)
}

func (f *fakeScroller) Advance(ctx context.Context) error {
	f.advances++
	if f.onAdvance != nil {
		f.onAdvance(f.advances)
	}
	return f.advanceErr
}

func (f *fakeScroller) Offset(ctx context.Context) (int, error) {
	if f.offsetErr != nil {
		return 0, f.offsetErr
	}
	v := f.offsets[f.pos]
	if f.pos < len(f.offsets)-1 {
		f.pos++
	}
	return v, nil
}

func TestRunStaticPageNeedsFullWindow(t *testing.T) {
	s := &fakeScroller{offsets: []int{0}}
	n, err := NewTerminator(300, logger.NewNopLogger()).Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 300, n)
	assert.Equal(t, 300, s.advances)
}

func TestRunStopsOnThe300thIdenticalSample(t *testing.T) {
	offsets := []int{0, 75, 150, 225, 300, 375}
	s := &fakeScroller{offsets: offsets}
	n, err := NewTerminator(300, logger.NewNopLogger()).Run(context.Background(), s)
	require.NoError(t, err)
	// 5 moving samples, then 375 repeats; the first 375 is sample 6
	assert.Equal(t, 5+300, n)
}

func TestRunClampsWindowSize(t *testing.T) {
	for _, size := range []int{0, -3} {
		s := &fakeScroller{offsets: []int{0}}
		n, err := NewTerminator(size, logger.NewNopLogger()).Run(context.Background(), s)
		require.NoError(t, err, "size %d", size)
		assert.Equal(t, 1, n, "size %d", size)
	}
}

func TestRunPropagatesScrollerErrors(t *testing.T) {
	boom := errors.New("target closed")

	s := &fakeScroller{offsets: []int{0}, advanceErr: boom}
	_, err := NewTerminator(300, logger.NewNopLogger()).Run(context.Background(), s)
	assert.ErrorIs(t, err, boom)

	s = &fakeScroller{offsets: []int{0}, offsetErr: boom}
	_, err = NewTerminator(300, logger.NewNopLogger()).Run(context.Background(), s)
	assert.ErrorIs(t, err, boom)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &fakeScroller{onAdvance: func(n int) {
		if n == 10 {
			cancel()
		}
	}}
	// offsets keep growing so stasis never happens
	s.offsets = make([]int, 1000)
	for i := range s.offsets {
		s.offsets[i] = i
	}

	n, err := NewTerminator(300, logger.NewNopLogger()).Run(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 10, n)
}
