// Package flash tracks short-lived highlight colors for features that just
// became the current target or were just visited.
package flash

import (
	"image/color"
	"math"
	"time"
)

// Tracker maps feature names to the time they were last touched. It is not
// safe for concurrent use.
type Tracker struct {
	touched map[string]time.Time
}

func NewTracker() *Tracker {
	return &Tracker{touched: make(map[string]time.Time)}
}

// Touch records now for name, restarting any fade already in progress.
func (t *Tracker) Touch(name string, now time.Time) {
	if name == "" {
		return
	}
	t.touched[name] = now
}

// Active reports whether name is mid-flash at now.
func (t *Tracker) Active(name string, duration time.Duration, now time.Time) bool {
	at, ok := t.touched[name]
	return ok && duration > 0 && now.Sub(at) < duration
}

// ColorAt blends from flash to resting over duration with a cubic ease. With
// no entry, or once the duration has elapsed, it returns resting exactly.
func (t *Tracker) ColorAt(name string, resting, flash color.RGBA, duration time.Duration, now time.Time) color.RGBA {
	at, ok := t.touched[name]
	if !ok || duration <= 0 {
		return resting
	}
	elapsed := now.Sub(at)
	if elapsed >= duration {
		return resting
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return Blend(flash, resting, EaseCubicInOut(float64(elapsed)/float64(duration)))
}

// Prune drops entries whose flash has finished.
func (t *Tracker) Prune(duration time.Duration, now time.Time) {
	for name, at := range t.touched {
		if now.Sub(at) >= duration {
			delete(t.touched, name)
		}
	}
}

// Reset drops every entry.
func (t *Tracker) Reset() {
	clear(t.touched)
}

func (t *Tracker) Len() int { return len(t.touched) }

// EaseCubicInOut is the symmetric cubic easing curve on [0, 1].
func EaseCubicInOut(x float64) float64 {
	x = math.Max(0, math.Min(1, x))
	if x < 0.5 {
		return 4 * x * x * x
	}
	return 1 - math.Pow(-2*x+2, 3)/2
}

// Blend linearly interpolates each channel from a to b.
func Blend(a, b color.RGBA, t float64) color.RGBA {
	t = math.Max(0, math.Min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), mix(a.A, b.A)}
}
