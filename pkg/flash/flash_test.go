package flash

import (
	"image/color"
	"math"
	"testing"
	"time"
)

var (
	t0      = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	resting = color.RGBA{59, 130, 246, 255}
	flashC  = color.RGBA{255, 255, 255, 255}
)

func TestColorAtEndpoints(t *testing.T) {
	tr := NewTracker()
	d := 1500 * time.Millisecond

	if got := tr.ColorAt("Japan", resting, flashC, d, t0); got != resting {
		t.Errorf("ColorAt(untouched) = %v; want %v", got, resting)
	}

	tr.Touch("Japan", t0)
	if got := tr.ColorAt("Japan", resting, flashC, d, t0); got != flashC {
		t.Errorf("ColorAt(elapsed=0) = %v; want %v", got, flashC)
	}
	if got := tr.ColorAt("Japan", resting, flashC, d, t0.Add(d)); got != resting {
		t.Errorf("ColorAt(elapsed=duration) = %v; want %v", got, resting)
	}
	if got := tr.ColorAt("Japan", resting, flashC, d, t0.Add(5*d)); got != resting {
		t.Errorf("ColorAt(elapsed>duration) = %v; want %v", got, resting)
	}
}

func TestColorAtMonotonic(t *testing.T) {
	tr := NewTracker()
	d := time.Second
	tr.Touch("France", t0)

	dist := func(c color.RGBA) float64 {
		dr := float64(c.R) - float64(resting.R)
		dg := float64(c.G) - float64(resting.G)
		db := float64(c.B) - float64(resting.B)
		return math.Sqrt(dr*dr + dg*dg + db*db)
	}
	prev := math.Inf(1)
	for ms := 0; ms <= 1000; ms += 25 {
		c := tr.ColorAt("France", resting, flashC, d, t0.Add(time.Duration(ms)*time.Millisecond))
		cur := dist(c)
		if cur > prev {
			t.Fatalf("distance to resting grew at %dms: %f > %f", ms, cur, prev)
		}
		for _, ch := range []struct{ got, lo, hi uint8 }{
			{c.R, resting.R, flashC.R}, {c.G, resting.G, flashC.G}, {c.B, resting.B, flashC.B},
		} {
			if ch.got < ch.lo || ch.got > ch.hi {
				t.Fatalf("channel %d outside [%d, %d] at %dms", ch.got, ch.lo, ch.hi, ms)
			}
		}
		prev = cur
	}
}

func TestTouchRestartsFade(t *testing.T) {
	tr := NewTracker()
	d := time.Second
	tr.Touch("Kenya", t0)
	tr.Touch("Kenya", t0.Add(900*time.Millisecond))
	if got := tr.ColorAt("Kenya", resting, flashC, d, t0.Add(900*time.Millisecond)); got != flashC {
		t.Errorf("ColorAt after re-touch = %v; want full flash", got)
	}
	if !tr.Active("Kenya", d, t0.Add(1500*time.Millisecond)) {
		t.Error("Active() = false; re-touch should extend the flash")
	}
}

func TestPruneAndReset(t *testing.T) {
	tr := NewTracker()
	d := time.Second
	tr.Touch("A", t0)
	tr.Touch("B", t0.Add(800*time.Millisecond))
	tr.Touch("", t0)

	tr.Prune(d, t0.Add(time.Second))
	if tr.Len() != 1 || !tr.Active("B", d, t0.Add(time.Second)) {
		t.Errorf("after Prune: len=%d; want only B left", tr.Len())
	}
	tr.Reset()
	if tr.Len() != 0 {
		t.Errorf("after Reset: len=%d; want 0", tr.Len())
	}
}

func TestEaseCubicInOut(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-1, 0}, {0, 0}, {0.25, 0.0625}, {0.5, 0.5}, {0.75, 0.9375}, {1, 1}, {2, 1},
	}
	for _, tt := range tests {
		if got := EaseCubicInOut(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("EaseCubicInOut(%f) = %f; want %f", tt.in, got, tt.want)
		}
	}
}
