package projection

import (
	"math"

	"github.com/sudorandom/expansion-globe/pkg/geo"
)

// NewOrthographic returns a globe projection. Rotate follows the
// (lambda, phi, gamma) convention: rotating by (-lng, -lat, 0) brings
// (lng, lat) to the center of the disc.
func NewOrthographic(pose Pose) Projection {
	return affine{u: orthographic{rotate: pose.Rotate}, pose: pose}
}

type orthographic struct {
	rotate [3]float64
}

func (o orthographic) forward(p geo.LngLat) (float64, float64, bool) {
	lambda, phi := rotateForward(p.Lng*radians, p.Lat*radians, o.rotate)
	cosPhi := math.Cos(phi)
	x := cosPhi * math.Sin(lambda)
	y := math.Sin(phi)
	if cosPhi*math.Cos(lambda) > 0 {
		return x, -y, true
	}
	// Behind the globe: clamp to the limb along the same bearing.
	r := math.Hypot(x, y)
	if r < 1e-12 {
		return 0, -1, false
	}
	return x / r, -y / r, false
}

func (o orthographic) inverse(ux, uy float64) (geo.LngLat, bool) {
	x, y := ux, -uy
	rho := math.Hypot(x, y)
	if rho > 1 {
		return geo.LngLat{}, false
	}
	var lambda, phi float64
	if rho > 1e-12 {
		c := math.Asin(rho)
		sc, cc := math.Sin(c), math.Cos(c)
		lambda = math.Atan2(x*sc, rho*cc)
		phi = math.Asin(y * sc / rho)
	}
	lambda, phi = rotateInverse(lambda, phi, o.rotate)
	return geo.LngLat{Lng: WrapLng(lambda * degrees), Lat: phi * degrees}, true
}

func rotateForward(lambda, phi float64, rotate [3]float64) (float64, float64) {
	lambda += rotate[0] * radians
	dPhi, dGamma := rotate[1]*radians, rotate[2]*radians
	if dPhi == 0 && dGamma == 0 {
		return wrapRad(lambda), phi
	}
	cdp, sdp := math.Cos(dPhi), math.Sin(dPhi)
	cdg, sdg := math.Cos(dGamma), math.Sin(dGamma)
	cosPhi := math.Cos(phi)
	x := math.Cos(lambda) * cosPhi
	y := math.Sin(lambda) * cosPhi
	z := math.Sin(phi)
	k := z*cdp + x*sdp
	return math.Atan2(y*cdg-k*sdg, x*cdp-z*sdp), math.Asin(clamp1(k*cdg + y*sdg))
}

func rotateInverse(lambda, phi float64, rotate [3]float64) (float64, float64) {
	dPhi, dGamma := rotate[1]*radians, rotate[2]*radians
	if dPhi != 0 || dGamma != 0 {
		cdp, sdp := math.Cos(dPhi), math.Sin(dPhi)
		cdg, sdg := math.Cos(dGamma), math.Sin(dGamma)
		cosPhi := math.Cos(phi)
		x := math.Cos(lambda) * cosPhi
		y := math.Sin(lambda) * cosPhi
		z := math.Sin(phi)
		k := z*cdg - y*sdg
		lambda = math.Atan2(y*cdg+z*sdg, x*cdp+k*sdp)
		phi = math.Asin(clamp1(k*cdp - x*sdp))
	}
	return wrapRad(lambda - rotate[0]*radians), phi
}

func wrapRad(a float64) float64 {
	return WrapLng(a*degrees) * radians
}

func clamp1(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
