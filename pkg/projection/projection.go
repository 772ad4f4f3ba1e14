// Package projection maps geographic coordinates to screen pixels for a
// camera pose. Two projections are supported: an orthographic globe driven
// by a rotation triple, and a composite Albers equal-area view of the United
// States with Alaska and Hawaii insets.
package projection

import (
	"math"

	"github.com/sudorandom/expansion-globe/pkg/geo"
)

const (
	radians = math.Pi / 180
	degrees = 180 / math.Pi
)

// Pose is the camera state read by every render pass. Rotate is only used by
// the globe.
type Pose struct {
	Rotate    [3]float64
	Scale     float64
	Translate [2]float64
}

// Valid reports whether every component is finite and the scale is positive.
func (p Pose) Valid() bool {
	vals := []float64{p.Rotate[0], p.Rotate[1], p.Rotate[2], p.Scale, p.Translate[0], p.Translate[1]}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return p.Scale > 0
}

// Projection converts between geographic and screen coordinates.
type Projection interface {
	// Project returns the screen point and whether it is visible. Points on
	// the far side of the globe are pushed onto the limb.
	Project(p geo.LngLat) (x, y float64, visible bool)
	// Invert returns the coordinate under a screen point.
	Invert(x, y float64) (geo.LngLat, bool)
}

// For returns the projection used by the given map mode.
func For(mode geo.Mode, pose Pose) Projection {
	if mode == geo.ModeUSA {
		return NewAlbersUSA(pose)
	}
	return NewOrthographic(pose)
}

// unit maps a coordinate into scale-independent space; screen space is
// translate + scale*unit with y pointing down.
type unit interface {
	forward(p geo.LngLat) (ux, uy float64, visible bool)
	inverse(ux, uy float64) (geo.LngLat, bool)
}

type affine struct {
	u    unit
	pose Pose
}

func (a affine) Project(p geo.LngLat) (float64, float64, bool) {
	ux, uy, ok := a.u.forward(p)
	return a.pose.Translate[0] + a.pose.Scale*ux, a.pose.Translate[1] + a.pose.Scale*uy, ok
}

func (a affine) Invert(x, y float64) (geo.LngLat, bool) {
	if a.pose.Scale <= 0 {
		return geo.LngLat{}, false
	}
	return a.u.inverse((x-a.pose.Translate[0])/a.pose.Scale, (y-a.pose.Translate[1])/a.pose.Scale)
}

// Unit returns the scale-independent position of p, used by the camera to
// compute the translate that centers a point.
func Unit(mode geo.Mode, pose Pose, p geo.LngLat) (ux, uy float64, ok bool) {
	if mode == geo.ModeUSA {
		return albersUSA{}.forward(p)
	}
	return orthographic{rotate: pose.Rotate}.forward(p)
}

// Drag applies a pointer delta in pixels. On the globe the rotation is scaled
// by the inverse of the zoom so the surface tracks the pointer at any scale;
// the flat view pans.
func (p Pose) Drag(mode geo.Mode, dx, dy float64) Pose {
	if mode == geo.ModeUSA {
		p.Translate[0] += dx
		p.Translate[1] += dy
		return p
	}
	if p.Scale <= 0 {
		return p
	}
	k := 75 / p.Scale
	p.Rotate[0] += dx * k
	p.Rotate[1] -= dy * k
	p.Rotate[1] = math.Max(-90, math.Min(90, p.Rotate[1]))
	return p
}

// WrapLng normalizes a longitude into [-180, 180).
func WrapLng(lng float64) float64 {
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	return lng - 180
}
