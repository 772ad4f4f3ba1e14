package globeengine

import (
	"image/color"
	"math"
	"time"

	"github.com/sudorandom/expansion-globe/pkg/config"
	"github.com/sudorandom/expansion-globe/pkg/flash"
	"github.com/sudorandom/expansion-globe/pkg/geo"
	"github.com/sudorandom/expansion-globe/pkg/timeline"
)

// Frame is everything a render pass reads, captured once per Draw.
type Frame struct {
	Mode      geo.Mode
	State     timeline.State
	Events    []timeline.Event
	Locations []geo.Location // parallel to Events
	Current   int            // index into Events, or -1
	Progress  float64        // eased camera progress, 1 at rest
	Now       time.Time
}

// VisitedFeatures returns the keys of features that hold a visited event.
func (f Frame) VisitedFeatures() map[string]bool {
	out := make(map[string]bool)
	for i, ev := range f.Events {
		if ev.Visited && i < len(f.Locations) {
			if key := f.Locations[i].FeatureKey(); key != "" {
				out[key] = true
			}
		}
	}
	return out
}

// CurrentFeature returns the feature key of the current target.
func (f Frame) CurrentFeature() string {
	if f.Current < 0 || f.Current >= len(f.Locations) {
		return ""
	}
	return f.Locations[f.Current].FeatureKey()
}

type Fill struct {
	Feature *geo.Feature
	Color   color.RGBA
}

// FeatureFills splits features into the resting pass, filled with the
// unvisited color, and the highlight pass: visited features, the current
// target, and anything still flashing.
func FeatureFills(features []*geo.Feature, visited map[string]bool, current string, tr *flash.Tracker, pal config.Palette, flashDur time.Duration, now time.Time) (resting, highlighted []Fill) {
	for _, ft := range features {
		key := ft.Key()
		isVisited := visited[key]
		if !isVisited && key != current && !tr.Active(key, flashDur, now) {
			resting = append(resting, Fill{Feature: ft, Color: pal.Unvisited})
			continue
		}
		rest := pal.Unvisited
		if isVisited {
			rest = pal.Visited
		}
		highlighted = append(highlighted, Fill{Feature: ft, Color: tr.ColorAt(key, rest, pal.Flash, flashDur, now)})
	}
	return resting, highlighted
}

// TrailSegment is the part [T0, T1] of the great circle From->To to draw.
type TrailSegment struct {
	From, To geo.LngLat
	T0, T1   float64
	Active   bool
	// Order is the segment's position in the route, used for rainbow hues.
	Order int
}

// growTail is how far behind the head the tail of a grow-style trail runs.
const growTail = 0.35

// Trails returns the static history plus the animating head segment. While
// playing, history covers pairs before the current target; otherwise the
// whole route is drawn. Pairs with an unresolved end are skipped.
func Trails(f Frame, style config.TrailStyle) []TrailSegment {
	n := len(f.Events)
	if len(f.Locations) < n {
		n = len(f.Locations)
	}
	lastStatic := n - 1
	if f.State == timeline.Playing {
		lastStatic = max(-1, f.Current-1)
	}

	var out []TrailSegment
	for i := 0; i < lastStatic; i++ {
		a, b := f.Locations[i], f.Locations[i+1]
		if !a.Resolved || !b.Resolved {
			continue
		}
		out = append(out, TrailSegment{From: a.Point, To: b.Point, T0: 0, T1: 1, Order: i})
	}

	if f.State == timeline.Playing && f.Current > 0 && f.Current < n {
		a, b := f.Locations[f.Current-1], f.Locations[f.Current]
		if a.Resolved && b.Resolved {
			head := math.Max(0, math.Min(1, f.Progress))
			tail := 0.0
			if style == config.TrailGrow {
				tail = math.Max(0, head-growTail)
			}
			out = append(out, TrailSegment{From: a.Point, To: b.Point, T0: tail, T1: head, Active: true, Order: f.Current - 1})
		}
	}
	return out
}

// Marker is a pin at a visited or current location.
type Marker struct {
	Point  geo.LngLat
	Target bool
	Scale  float64
	Alpha  float64
}

// Markers lists pins for visited events and the current target. The target
// grows once the camera is nearly there.
func Markers(f Frame) []Marker {
	var out []Marker
	for i, ev := range f.Events {
		if i >= len(f.Locations) || !f.Locations[i].Resolved {
			continue
		}
		target := i == f.Current
		if !ev.Visited && !target {
			continue
		}
		m := Marker{Point: f.Locations[i].Point, Target: target, Scale: 1, Alpha: 0.85}
		if target {
			m.Alpha = 1
			if f.Progress > 0.9 {
				m.Scale = 1.2
			}
		}
		out = append(out, m)
	}
	return out
}

// RainbowColor maps a position on [0, 1] around the hue wheel.
func RainbowColor(pos float64) color.RGBA {
	h := math.Mod(pos, 1)
	if h < 0 {
		h++
	}
	const s, v = 0.8, 1.0
	h6 := h * 6
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h6, 2)-1))
	var r, g, b float64
	switch int(h6) {
	case 0:
		r, g = c, x
	case 1:
		r, g = x, c
	case 2:
		g, b = c, x
	case 3:
		g, b = x, c
	case 4:
		r, b = x, c
	default:
		r, b = c, x
	}
	m := v - c
	to8 := func(f float64) uint8 { return uint8(math.Round((f + m) * 255)) }
	return color.RGBA{to8(r), to8(g), to8(b), 255}
}
