package projection

import (
	"math"

	"github.com/sudorandom/expansion-globe/pkg/geo"
)

// conic is a conic equal-area projection with a fixed rotation and center.
type conic struct {
	n, c, r0   float64
	rotate     float64
	cx, cy     float64
	scale      float64
	offX, offY float64
}

func newConic(rotate, centerLng, centerLat, p0, p1, scale, offX, offY float64) conic {
	sy0 := math.Sin(p0 * radians)
	n := (sy0 + math.Sin(p1*radians)) / 2
	c := 1 + sy0*(2*n-sy0)
	k := conic{n: n, c: c, r0: math.Sqrt(c) / n, rotate: rotate, scale: scale, offX: offX, offY: offY}
	k.cx, k.cy = k.raw(centerLng*radians, centerLat*radians)
	return k
}

func (k conic) raw(lambda, phi float64) (float64, float64) {
	r := math.Sqrt(math.Max(0, k.c-2*k.n*math.Sin(phi))) / k.n
	a := lambda * k.n
	return r * math.Sin(a), k.r0 - r*math.Cos(a)
}

func (k conic) rawInverse(x, y float64) (float64, float64) {
	r0y := k.r0 - y
	l := math.Atan2(x, math.Abs(r0y)) * sign(r0y)
	if r0y*k.n < 0 {
		l -= math.Pi * sign(x) * sign(r0y)
	}
	return l / k.n, math.Asin(clamp1((k.c - (x*x+r0y*r0y)*k.n*k.n) / (2 * k.n)))
}

func (k conic) forward(p geo.LngLat) (float64, float64) {
	lambda := wrapRad((p.Lng + k.rotate) * radians)
	x, y := k.raw(lambda, p.Lat*radians)
	return k.offX + k.scale*(x-k.cx), k.offY - k.scale*(y-k.cy)
}

func (k conic) inverse(ux, uy float64) geo.LngLat {
	x := (ux-k.offX)/k.scale + k.cx
	y := -(uy-k.offY)/k.scale + k.cy
	lambda, phi := k.rawInverse(x, y)
	return geo.LngLat{Lng: WrapLng(lambda*degrees - k.rotate), Lat: phi * degrees}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

type inset struct {
	proj conic
	in   func(p geo.LngLat) bool
}

var (
	lower48 = inset{
		proj: newConic(96, -0.6, 38.7, 29.5, 45.5, 1, 0, 0),
		in: func(p geo.LngLat) bool {
			return p.Lat >= 20 && p.Lat <= 52 && p.Lng >= -130 && p.Lng <= -60
		},
	}
	alaska = inset{
		proj: newConic(154, -2, 58.5, 55, 65, 0.35, -0.307, 0.201),
		in: func(p geo.LngLat) bool {
			return p.Lat >= 50 && p.Lat <= 72 && (p.Lng <= -129 || p.Lng >= 170)
		},
	}
	hawaii = inset{
		proj: newConic(157, -3, 19.9, 8, 18, 1, -0.205, 0.212),
		in: func(p geo.LngLat) bool {
			return p.Lat >= 18 && p.Lat <= 23 && p.Lng >= -161 && p.Lng <= -154
		},
	}
	insets = []inset{alaska, hawaii, lower48}
)

// NewAlbersUSA returns the composite United States projection. Points that
// fall outside the lower 48, Alaska and Hawaii are reported as not visible.
func NewAlbersUSA(pose Pose) Projection {
	return affine{u: albersUSA{}, pose: pose}
}

type albersUSA struct{}

func (albersUSA) forward(p geo.LngLat) (float64, float64, bool) {
	for _, in := range insets {
		if in.in(p) {
			x, y := in.proj.forward(p)
			return x, y, true
		}
	}
	x, y := lower48.proj.forward(p)
	return x, y, false
}

func (albersUSA) inverse(ux, uy float64) (geo.LngLat, bool) {
	for _, in := range insets {
		p := in.proj.inverse(ux, uy)
		if in.in(p) {
			return p, true
		}
	}
	return geo.LngLat{}, false
}
