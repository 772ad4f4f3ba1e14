package geo

import "math"

const (
	radians = math.Pi / 180
	degrees = 180 / math.Pi
)

type vec3 struct{ x, y, z float64 }

func cartesian(p LngLat) vec3 {
	lng, lat := p.Lng*radians, p.Lat*radians
	cl := math.Cos(lat)
	return vec3{cl * math.Cos(lng), cl * math.Sin(lng), math.Sin(lat)}
}

func spherical(v vec3) LngLat {
	return LngLat{
		Lng: math.Atan2(v.y, v.x) * degrees,
		Lat: math.Asin(math.Max(-1, math.Min(1, v.z/v.norm()))) * degrees,
	}
}

func (a vec3) add(b vec3) vec3 { return vec3{a.x + b.x, a.y + b.y, a.z + b.z} }
func (a vec3) scale(k float64) vec3 { return vec3{a.x * k, a.y * k, a.z * k} }
func (a vec3) dot(b vec3) float64 { return a.x*b.x + a.y*b.y + a.z*b.z }
func (a vec3) norm() float64 { return math.Sqrt(a.dot(a)) }
func (a vec3) cross(b vec3) vec3 {
	return vec3{a.y*b.z - a.z*b.y, a.z*b.x - a.x*b.z, a.x*b.y - a.y*b.x}
}

// ringMoment integrates the ring boundary on the unit sphere. The result points
// at the area-weighted centroid of the enclosed region, with its sign set by
// the ring's winding.
func ringMoment(ring [][]float64) vec3 {
	var sum vec3
	n := len(ring)
	if n < 3 {
		return sum
	}
	prev := cartesian(LngLat{ring[n-1][0], ring[n-1][1]})
	for _, p := range ring {
		if len(p) < 2 {
			continue
		}
		cur := cartesian(LngLat{p[0], p[1]})
		c := prev.cross(cur)
		m := c.norm()
		if m > 1e-12 {
			w := math.Atan2(m, prev.dot(cur))
			sum = sum.add(c.scale(w / m))
		}
		prev = cur
	}
	return sum
}

func ringMean(ring [][]float64) vec3 {
	var sum vec3
	for _, p := range ring {
		if len(p) < 2 {
			continue
		}
		sum = sum.add(cartesian(LngLat{p[0], p[1]}))
	}
	return sum
}

// Centroid returns the spherical area-weighted centroid of a set of polygons.
// Exterior rings count positively and holes negatively regardless of the
// winding convention of the source data. Degenerate input falls back to the
// mean of the exterior vertices.
func Centroid(polygons [][][][]float64) LngLat {
	var total, mean vec3
	for _, poly := range polygons {
		if len(poly) == 0 {
			continue
		}
		var moment vec3
		for _, ring := range poly {
			moment = moment.add(ringMoment(ring))
		}
		m := ringMean(poly[0])
		if moment.dot(m) < 0 {
			moment = moment.scale(-1)
		}
		total = total.add(moment)
		mean = mean.add(m)
	}
	if total.norm() > 1e-9 {
		return spherical(total)
	}
	if mean.norm() > 1e-9 {
		return spherical(mean)
	}
	return LngLat{}
}
