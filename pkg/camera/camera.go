// Package camera drives the projection pose toward the current timeline
// target with eased tweens.
package camera

import (
	"math"
	"time"

	"github.com/sudorandom/expansion-globe/pkg/flash"
	"github.com/sudorandom/expansion-globe/pkg/geo"
	"github.com/sudorandom/expansion-globe/pkg/projection"
	"github.com/sudorandom/expansion-globe/pkg/timeline"
)

// HomeCoordinate is the approximate geographic center of the contiguous
// United States.
var HomeCoordinate = geo.LngLat{Lng: -98.5795, Lat: 39.8283}

const zoomOutThreshold = 1.5

// BaseScale is the resting scale for a viewport: the globe fills a little
// under the shorter side, the flat map is sized off the width.
func BaseScale(mode geo.Mode, width, height int, zoomOut float64) float64 {
	if zoomOut <= 0 || math.IsNaN(zoomOut) {
		zoomOut = 1
	}
	if mode == geo.ModeUSA {
		return float64(width) * 1.3 * zoomOut
	}
	return math.Min(float64(width), float64(height)) / 2.2 * zoomOut
}

// HomePose is the pose shown before playback starts.
func HomePose(mode geo.Mode, home geo.LngLat, width, height int, zoomOut float64) projection.Pose {
	p := projection.Pose{
		Scale:     BaseScale(mode, width, height, zoomOut),
		Translate: [2]float64{float64(width) / 2, float64(height) / 2},
	}
	if mode != geo.ModeUSA {
		p.Rotate = [3]float64{-home.Lng, -home.Lat, 0}
	}
	return p
}

type Config struct {
	Mode     geo.Mode
	Duration time.Duration
	ZoomIn   float64
	Home     geo.LngLat
	MinScale float64
	MaxScale float64
}

// Request describes what the camera should be looking at.
type Request struct {
	State     timeline.State
	Target    string
	Location  geo.Location
	BaseScale float64
	Center    [2]float64
}

type tween struct {
	start    time.Time
	duration time.Duration
	from, to projection.Pose
	base     float64
	split    bool
}

// Animator owns the pose. Every write goes through commit.
type Animator struct {
	cfg   Config
	pose  projection.Pose
	tween *tween

	prevTarget string
	prevState  timeline.State

	// OnComplete is called with the committed pose when a tween finishes.
	OnComplete func(projection.Pose)
}

func New(cfg Config, initial projection.Pose) *Animator {
	if cfg.MinScale <= 0 {
		cfg.MinScale = 1
	}
	if cfg.MaxScale <= cfg.MinScale {
		cfg.MaxScale = 1e6
	}
	a := &Animator{cfg: cfg, pose: projection.Pose{Scale: cfg.MinScale}}
	a.commit(initial)
	return a
}

func (a *Animator) Pose() projection.Pose { return a.pose }

func (a *Animator) Mode() geo.Mode { return a.cfg.Mode }

func (a *Animator) Animating() bool { return a.tween != nil }

// SetConfig replaces the configuration. A running tween keeps its timing.
func (a *Animator) SetConfig(cfg Config) {
	if cfg.MinScale <= 0 {
		cfg.MinScale = 1
	}
	if cfg.MaxScale <= cfg.MinScale {
		cfg.MaxScale = 1e6
	}
	a.cfg = cfg
}

// Reset cancels any tween and jumps to pose, for example after a resize or a
// map mode change.
func (a *Animator) Reset(pose projection.Pose) {
	a.tween = nil
	a.commit(pose)
}

// Progress returns the eased fraction of the running tween, or 1 when the
// camera is at rest.
func (a *Animator) Progress(now time.Time) float64 {
	if a.tween == nil {
		return 1
	}
	return flash.EaseCubicInOut(a.tween.fraction(now))
}

// Sync compares req with the previous request. When the target id or the
// state changed and there is somewhere to go, it starts a tween from the
// current pose, replacing any tween already running. It reports whether a
// tween was started.
func (a *Animator) Sync(req Request, now time.Time) bool {
	if req.Target == a.prevTarget && req.State == a.prevState {
		return false
	}
	a.prevTarget, a.prevState = req.Target, req.State

	to, ok := a.targetPose(req)
	if !ok {
		return false
	}
	a.tween = &tween{
		start:    now,
		duration: a.cfg.Duration,
		from:     a.pose,
		to:       to,
		base:     req.BaseScale,
		split:    req.State == timeline.Playing && a.pose.Scale > req.BaseScale*zoomOutThreshold,
	}
	if a.tween.duration <= 0 {
		a.Tick(now)
	}
	return true
}

func (a *Animator) targetPose(req Request) (projection.Pose, bool) {
	base := req.BaseScale
	if base <= 0 || math.IsNaN(base) {
		return projection.Pose{}, false
	}
	switch {
	case req.State == timeline.Completed:
		if a.cfg.Mode == geo.ModeUSA {
			return projection.Pose{Scale: base, Translate: a.pose.Translate}, true
		}
		home := a.cfg.Home
		return projection.Pose{
			Rotate:    [3]float64{-home.Lng, -home.Lat, 0},
			Scale:     base,
			Translate: req.Center,
		}, true
	case req.State == timeline.Playing && req.Target != "" && req.Location.Resolved:
		p := req.Location.Point
		scale := base * a.cfg.ZoomIn
		if a.cfg.Mode == geo.ModeUSA {
			to := projection.Pose{Scale: scale, Translate: req.Center}
			if ux, uy, ok := projection.Unit(geo.ModeUSA, to, p); ok {
				to.Translate = [2]float64{req.Center[0] - scale*ux, req.Center[1] - scale*uy}
			}
			return to, true
		}
		return projection.Pose{
			Rotate:    [3]float64{-p.Lng, -p.Lat, 0},
			Scale:     scale,
			Translate: req.Center,
		}, true
	}
	return projection.Pose{}, false
}

// Tick advances the running tween to now. When the tween ends the exact
// target is committed and OnComplete fires.
func (a *Animator) Tick(now time.Time) {
	tw := a.tween
	if tw == nil {
		return
	}
	f := tw.fraction(now)
	if f >= 1 {
		a.tween = nil
		a.commit(tw.to)
		if a.OnComplete != nil {
			a.OnComplete(a.pose)
		}
		return
	}
	a.commit(tw.at(flash.EaseCubicInOut(f)))
}

// Drag pans or rotates the camera by a pointer delta. It is ignored while
// playing or while a tween is running.
func (a *Animator) Drag(state timeline.State, dx, dy float64) bool {
	if state != timeline.Idle && state != timeline.Completed {
		return false
	}
	if a.tween != nil {
		return false
	}
	return a.commit(a.pose.Drag(a.cfg.Mode, dx, dy))
}

// commit is the only writer of the pose. Non-finite poses are rejected and
// the scale is clamped.
func (a *Animator) commit(p projection.Pose) bool {
	if math.IsNaN(p.Scale) || math.IsInf(p.Scale, 0) {
		return false
	}
	p.Scale = math.Max(a.cfg.MinScale, math.Min(a.cfg.MaxScale, p.Scale))
	if !p.Valid() {
		return false
	}
	if p.Rotate[0] < -180 || p.Rotate[0] >= 180 {
		p.Rotate[0] = projection.WrapLng(p.Rotate[0])
	}
	a.pose = p
	return true
}

func (tw *tween) fraction(now time.Time) float64 {
	if tw.duration <= 0 {
		return 1
	}
	f := float64(now.Sub(tw.start)) / float64(tw.duration)
	return math.Max(0, math.Min(1, f))
}

func (tw *tween) at(e float64) projection.Pose {
	lerp := func(x, y float64) float64 { return x + (y-x)*e }
	var p projection.Pose
	for i := range p.Rotate {
		d := tw.to.Rotate[i] - tw.from.Rotate[i]
		if i != 1 {
			// Take the short way around.
			d = math.Remainder(d, 360)
		}
		p.Rotate[i] = tw.from.Rotate[i] + d*e
	}
	p.Translate = [2]float64{lerp(tw.from.Translate[0], tw.to.Translate[0]), lerp(tw.from.Translate[1], tw.to.Translate[1])}

	s0, s1 := tw.from.Scale, tw.to.Scale
	switch {
	case !tw.split:
		p.Scale = lerp(s0, s1)
	case e < 0.5:
		p.Scale = s0 + (tw.base-s0)*(e*2)
	default:
		p.Scale = tw.base + (s1-tw.base)*((e-0.5)*2)
	}
	return p
}
