package carousel

import (
	"context"
	"math/rand/v2"
	"slices"
	"testing"
	"time"
)

func TestItemsPerView(t *testing.T) {
	cases := map[int]int{320: 1, 767: 1, 768: 2, 1023: 2, 1024: 3, 1920: 3}
	for width, want := range cases {
		if got := ItemsPerView(width); got != want {
			t.Fatalf("ItemsPerView(%d) = %d, want %d", width, got, want)
		}
	}
}

func TestWindowWrapsAtBothEnds(t *testing.T) {
	w := NewWindow(6, 3)
	var seq []int
	for i := 0; i < 5; i++ {
		seq = append(seq, w.Next())
	}
	if !slices.Equal(seq, []int{1, 2, 3, 0, 1}) {
		t.Fatalf("next sequence = %v", seq)
	}
	w.GoTo(0)
	if got := w.Prev(); got != 3 {
		t.Fatalf("prev from start = %d, want 3", got)
	}
	if start, end := w.Visible(); start != 3 || end != 6 {
		t.Fatalf("visible = [%d,%d)", start, end)
	}
	if got := w.Indicators(); got != 4 {
		t.Fatalf("indicators = %d, want 4", got)
	}
}

func TestWindowNoopWhenEverythingVisible(t *testing.T) {
	w := NewWindow(3, 3)
	if w.Navigable() || w.Next() != 0 || w.Prev() != 0 {
		t.Fatalf("window with all items visible must not move")
	}
	if w.Indicators() != 1 {
		t.Fatalf("expected a single indicator")
	}
}

func TestWindowGoToAndResizeClamp(t *testing.T) {
	w := NewWindow(6, 1)
	if got := w.GoTo(99); got != 5 {
		t.Fatalf("goto clamp = %d, want 5", got)
	}
	w.Resize(3)
	if start, _ := w.Visible(); start != 3 {
		t.Fatalf("resize should clamp to last full window, got %d", start)
	}
}

func TestRotateStopsOnCancel(t *testing.T) {
	w := NewWindow(4, 1)
	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan int, 16)
	done := make(chan struct{})
	go func() {
		w.Rotate(ctx, 5*time.Millisecond, func(i int) { ticks <- i })
		close(done)
	}()
	select {
	case got := <-ticks:
		if got != 1 {
			t.Fatalf("first tick index = %d, want 1", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("rotation never ticked")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("rotate did not stop after cancel")
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	out := Shuffle(in, rand.New(rand.NewPCG(1, 2)))
	if len(out) != len(in) {
		t.Fatalf("length changed")
	}
	sorted := slices.Clone(out)
	slices.Sort(sorted)
	if !slices.Equal(sorted, in) {
		t.Fatalf("shuffle lost elements: %v", out)
	}
	again := Shuffle(in, rand.New(rand.NewPCG(1, 2)))
	if !slices.Equal(out, again) {
		t.Fatalf("same seed should give same order")
	}
	if !slices.Equal(in, []int{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("input modified")
	}
}
