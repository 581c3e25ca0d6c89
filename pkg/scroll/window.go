package scroll

// Window is a fixed-capacity ring of the most recent scroll offsets.
// It tracks how many distinct values it holds so that Stalled is O(1).
type Window struct {
	samples []int
	next    int
	count   int
	counts  map[int]int
}

// NewWindow creates a window holding up to capacity samples
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		samples: make([]int, capacity),
		counts:  make(map[int]int),
	}
}

// Push appends v, evicting the oldest sample when the window is full
func (w *Window) Push(v int) {
	if w.count == len(w.samples) {
		old := w.samples[w.next]
		if w.counts[old]--; w.counts[old] == 0 {
			delete(w.counts, old)
		}
	} else {
		w.count++
	}
	w.samples[w.next] = v
	w.counts[v]++
	w.next = (w.next + 1) % len(w.samples)
}

// Stalled reports whether the window is full and every sample is identical
func (w *Window) Stalled() bool {
	return w.count == len(w.samples) && len(w.counts) == 1
}

// Len returns the number of samples currently held
func (w *Window) Len() int { return w.count }

// Cap returns the window capacity
func (w *Window) Cap() int { return len(w.samples) }
