package globeengine

import (
	"testing"
)

func TestRadialPixels(t *testing.T) {
	const size = 16
	px := radialPixels(size, func(r float64) float64 { return 1 })
	if len(px) != size*size*4 {
		t.Fatalf("len(radialPixels) = %d; want %d", len(px), size*size*4)
	}
	alpha := func(x, y int) uint8 { return px[(y*size+x)*4+3] }
	if got := alpha(size/2, size/2); got != 255 {
		t.Errorf("center alpha = %d; want 255", got)
	}
	if got := alpha(0, 0); got != 0 {
		t.Errorf("corner alpha = %d; want 0", got)
	}
}

func TestAtmosphereProfile(t *testing.T) {
	tests := []struct {
		r, want float64
	}{
		{0, 0},
		{0.79, 0},
		{0.8, 0},
		{0.9, 0.15},
		{1, 0.3},
	}
	for _, tt := range tests {
		if got := atmosphereProfile(tt.r); !almostEqual(got, tt.want) {
			t.Errorf("atmosphereProfile(%v) = %v; want %v", tt.r, got, tt.want)
		}
	}
}

func TestRingProfile(t *testing.T) {
	p := ringProfile(0.8, 0.9)
	if got := p(0.5); got != 0 {
		t.Errorf("ringProfile inside = %v; want 0", got)
	}
	if got := p(0.9); !almostEqual(got, 1) {
		t.Errorf("ringProfile at outer = %v; want 1", got)
	}
}

func TestGraticuleLines(t *testing.T) {
	lines := graticuleLines(10, 2)
	// 36 meridians and 17 parallels.
	if len(lines) != 53 {
		t.Fatalf("len(graticuleLines) = %d; want 53", len(lines))
	}
	m := lines[0]
	if m[0].Lat != -80 || m[len(m)-1].Lat != 80 || m[0].Lng != -180 {
		t.Errorf("first meridian spans %v..%v; want -180 from lat -80 to 80", m[0], m[len(m)-1])
	}
	p := lines[36]
	if p[0].Lng != -180 || p[len(p)-1].Lng != 180 || p[0].Lat != -80 {
		t.Errorf("first parallel spans %v..%v; want lat -80 from -180 to 180", p[0], p[len(p)-1])
	}
}

func TestCaptureName(t *testing.T) {
	if got := captureName(2, 17); got != "globe-002-000017.png" {
		t.Errorf("captureName(2, 17) = %q; want %q", got, "globe-002-000017.png")
	}
}
