// Package carousel drives the rotating feedback strip and the homepage shuffle.
package carousel

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// DefaultInterval is the auto-rotation period.
const DefaultInterval = 5 * time.Second

// ItemsPerView maps a viewport width in CSS pixels to the number of visible cards.
func ItemsPerView(width int) int {
	switch {
	case width >= 1024:
		return 3
	case width >= 768:
		return 2
	default:
		return 1
	}
}

// Window is a fixed-size visible window over n items that wraps at both ends.
// The zero value is not usable; call NewWindow.
type Window struct {
	mu           sync.Mutex
	n            int
	itemsPerView int
	index        int
}

func NewWindow(n, itemsPerView int) *Window {
	if itemsPerView < 1 {
		itemsPerView = 1
	}
	return &Window{n: n, itemsPerView: itemsPerView}
}

// Navigable reports whether there is anything to scroll to.
func (w *Window) Navigable() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.navigableLocked()
}

func (w *Window) navigableLocked() bool {
	return w.n > w.itemsPerView
}

// Next advances by one, wrapping to the start once the last full window is shown.
func (w *Window) Next() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.navigableLocked() {
		return w.index
	}
	if w.index >= w.n-w.itemsPerView {
		w.index = 0
	} else {
		w.index++
	}
	return w.index
}

// Prev steps back by one, wrapping to the last full window from the start.
func (w *Window) Prev() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.navigableLocked() {
		return w.index
	}
	if w.index == 0 {
		w.index = max(0, w.n-w.itemsPerView)
	} else {
		w.index--
	}
	return w.index
}

// GoTo jumps to an indicator position, clamped to the valid range.
func (w *Window) GoTo(i int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.index = min(max(0, i), max(0, w.n-w.itemsPerView))
	return w.index
}

// Resize changes the items per view, as when the viewport width changes.
func (w *Window) Resize(itemsPerView int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if itemsPerView < 1 {
		itemsPerView = 1
	}
	w.itemsPerView = itemsPerView
	w.index = min(w.index, max(0, w.n-w.itemsPerView))
}

// Visible returns the half-open index range currently shown.
func (w *Window) Visible() (start, end int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index, min(w.n, w.index+w.itemsPerView)
}

// Indicators is the number of dot positions.
func (w *Window) Indicators() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.navigableLocked() {
		return 1
	}
	return w.n - w.itemsPerView + 1
}

// Rotate calls Next every interval and reports each new index to onTick until
// ctx is cancelled. It blocks; run it in its own goroutine.
func (w *Window) Rotate(ctx context.Context, interval time.Duration, onTick func(index int)) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.Navigable() {
				continue
			}
			idx := w.Next()
			if onTick != nil {
				onTick(idx)
			}
		}
	}
}

// Shuffle returns a Fisher–Yates shuffled copy of items. A nil rng uses the
// global source.
func Shuffle[T any](items []T, rng *rand.Rand) []T {
	out := append([]T(nil), items...)
	for i := len(out) - 1; i > 0; i-- {
		var j int
		if rng != nil {
			j = rng.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		out[i], out[j] = out[j], out[i]
	}
	return out
}
