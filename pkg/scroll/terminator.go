package scroll

import (
	"context"
	"fmt"

	"ttscraper/pkg/logger"
)

// Scroller drives one page. Advance scrolls by one step and waits for the
// page to settle; Offset reports the current vertical scroll position.
type Scroller interface {
	Advance(ctx context.Context) error
	Offset(ctx context.Context) (int, error)
}

// Terminator scrolls a page until its offset stops changing for a full window
type Terminator struct {
	windowSize int
	logger     logger.Logger
}

// NewTerminator creates a terminator that stops after windowSize identical offsets
func NewTerminator(windowSize int, log logger.Logger) *Terminator {
	if log == nil {
		log = logger.GetLogger()
	}
	if windowSize < 1 {
		windowSize = 1
	}
	return &Terminator{
		windowSize: windowSize,
		logger:     log.WithField("component", "scroll"),
	}
}

// Run scrolls until the page stalls and returns the number of iterations.
// A scroller error ends the loop and is returned wrapped with the step number.
func (t *Terminator) Run(ctx context.Context, s Scroller) (int, error) {
	window := NewWindow(t.windowSize)
	iterations := 0

	for !window.Stalled() {
		if err := ctx.Err(); err != nil {
			return iterations, err
		}
		if err := s.Advance(ctx); err != nil {
			return iterations, fmt.Errorf("scroll step %d: %w", iterations+1, err)
		}
		offset, err := s.Offset(ctx)
		if err != nil {
			return iterations, fmt.Errorf("read offset at step %d: %w", iterations+1, err)
		}
		window.Push(offset)
		iterations++

		if iterations%window.Cap() == 0 {
			t.logger.DebugWithFields("Scrolling", map[string]interface{}{
				"iterations": iterations,
				"offset":     offset,
				"samples":    window.Len(),
			})
		}
	}

	t.logger.InfoWithFields("Reached end of feed", map[string]interface{}{
		"iterations": iterations,
	})
	return iterations, nil
}
