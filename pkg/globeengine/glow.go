package globeengine

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/sudorandom/expansion-globe/pkg/geo"
)

// radialPixels renders a white RGBA texture whose alpha at each pixel is
// profile(distance from center / radius). Pixels outside the radius stay
// transparent.
func radialPixels(size int, profile func(r float64) float64) []byte {
	pixels := make([]byte, size*size*4)
	center, maxDist := float64(size)/2.0, float64(size)/2.0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)+0.5-center, float64(y)+0.5-center
			r := math.Sqrt(dx*dx+dy*dy) / maxDist
			if r >= 1 {
				continue
			}
			val := math.Max(0, math.Min(1, profile(r)))
			i := (y*size + x) * 4
			pixels[i+0], pixels[i+1], pixels[i+2] = 255, 255, 255
			pixels[i+3] = uint8(val * 255)
		}
	}
	return pixels
}

// ringProfile is a soft ring: it rises between inner and outer and falls off
// after outer.
func ringProfile(inner, outer float64) func(float64) float64 {
	return func(r float64) float64 {
		switch {
		case r > outer:
			return math.Cos((r - (outer + (1-outer)/2)) / ((1 - outer) / 2) * (math.Pi / 2))
		case r > inner:
			return math.Sin((r - inner) / (outer - inner) * (math.Pi / 2))
		}
		return 0
	}
}

// atmosphereProfile is transparent to 80% of the radius, then ramps to 0.3
// at the limb.
func atmosphereProfile(r float64) float64 {
	if r < 0.8 {
		return 0
	}
	return 0.3 * (r - 0.8) / 0.2
}

func (e *Engine) initTextures() {
	size := 128
	inner, outer := 0.8, 0.9
	if e.Width > 2000 {
		size = 256
		inner, outer = 0.88, 0.94
	}
	e.glowImage = ebiten.NewImage(size, size)
	e.glowImage.WritePixels(radialPixels(size, ringProfile(inner, outer)))

	e.atmosphereImage = ebiten.NewImage(512, 512)
	e.atmosphereImage.WritePixels(radialPixels(512, atmosphereProfile))
}

// graticuleLines returns meridians and parallels every step degrees, each
// sampled every sample degrees. Meridians stop short of the poles.
func graticuleLines(step, sample float64) [][]geo.LngLat {
	var lines [][]geo.LngLat
	for lng := -180.0; lng < 180; lng += step {
		var line []geo.LngLat
		for lat := -80.0; lat <= 80; lat += sample {
			line = append(line, geo.LngLat{Lng: lng, Lat: lat})
		}
		lines = append(lines, line)
	}
	for lat := -80.0; lat <= 80; lat += step {
		var line []geo.LngLat
		for lng := -180.0; lng <= 180; lng += sample {
			line = append(line, geo.LngLat{Lng: lng, Lat: lat})
		}
		lines = append(lines, line)
	}
	return lines
}
