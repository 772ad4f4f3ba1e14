package geo

import "math"

// Distance returns the great-circle angle between a and b in radians.
func Distance(a, b LngLat) float64 {
	va, vb := cartesian(a), cartesian(b)
	return math.Atan2(va.cross(vb).norm(), va.dot(vb))
}

// Interpolate returns the point a fraction t of the way along the great
// circle from a to b.
func Interpolate(a, b LngLat, t float64) LngLat {
	d := Distance(a, b)
	if d < 1e-12 {
		return a
	}
	va, vb := cartesian(a), cartesian(b)
	s := math.Sin(d)
	ka := math.Sin((1-t)*d) / s
	kb := math.Sin(t*d) / s
	return spherical(va.scale(ka).add(vb.scale(kb)))
}

// GreatCircle samples the arc from a to b at n+1 evenly spaced points,
// including both endpoints.
func GreatCircle(a, b LngLat, n int) []LngLat {
	if n < 1 {
		n = 1
	}
	out := make([]LngLat, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, Interpolate(a, b, float64(i)/float64(n)))
	}
	return out
}

// Segment samples the portion of the arc from a to b between fractions t0
// and t1.
func Segment(a, b LngLat, t0, t1 float64, n int) []LngLat {
	if n < 1 {
		n = 1
	}
	out := make([]LngLat, 0, n+1)
	for i := 0; i <= n; i++ {
		t := t0 + (t1-t0)*float64(i)/float64(n)
		out = append(out, Interpolate(a, b, t))
	}
	return out
}
