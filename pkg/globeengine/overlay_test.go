package globeengine

import (
	"math"
	"testing"
	"time"

	"github.com/sudorandom/expansion-globe/pkg/config"
	"github.com/sudorandom/expansion-globe/pkg/timeline"
)

func TestMonthName(t *testing.T) {
	tests := []struct {
		m    int
		want string
	}{
		{1, "January"},
		{12, "December"},
		{0, "December"},
		{13, "January"},
		{-1, "November"},
	}
	for _, tt := range tests {
		if got := MonthName(tt.m); got != tt.want {
			t.Errorf("MonthName(%d) = %q; want %q", tt.m, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	d := timeline.Date{Year: 2021, Month: 3, Day: 7}
	tests := []struct {
		format config.DateFormat
		want   string
	}{
		{config.DateNumberName, "07 March"},
		{config.DateMonthName, "March 2021"},
		{config.DateNumericFull, "2021.03.07"},
		{"", "2021.03.07"},
	}
	for _, tt := range tests {
		if got := FormatDate(d, tt.format); got != tt.want {
			t.Errorf("FormatDate(%v, %q) = %q; want %q", d, tt.format, got, tt.want)
		}
	}
}

func TestCounterOrigin(t *testing.T) {
	const sw, sh, w, h = 1000.0, 800.0, 100.0, 50.0
	tests := []struct {
		pos  config.CounterPosition
		x, y float64
	}{
		{config.TopLeft, 32, 32},
		{config.CenterLeft, 32, 375},
		{config.BottomLeft, 32, 718},
		{config.BottomCenter, 450, 718},
		{config.BottomRight, 868, 718},
		{config.CenterRight, 868, 375},
		{config.TopRight, 868, 32},
		{config.TopCenter, 450, 32},
		{"nowhere", 868, 32},
	}
	for _, tt := range tests {
		x, y := CounterOrigin(tt.pos, sw, sh, w, h)
		if x != tt.x || y != tt.y {
			t.Errorf("CounterOrigin(%q) = (%v, %v); want (%v, %v)", tt.pos, x, y, tt.x, tt.y)
		}
	}
}

func TestCinematicEntrance(t *testing.T) {
	tests := []struct {
		elapsed            time.Duration
		alpha, scale, lift float64
	}{
		{-time.Second, 0, 0.9, 0.05},
		{0, 0, 0.9, 0.05},
		{400 * time.Millisecond, 0.9375, 0.99375, 0.003125},
		{800 * time.Millisecond, 1, 1, 0},
		{5 * time.Second, 1, 1, 0},
	}
	for _, tt := range tests {
		a, s, l := CinematicEntrance(tt.elapsed)
		if math.Abs(a-tt.alpha) > 1e-9 || math.Abs(s-tt.scale) > 1e-9 || math.Abs(l-tt.lift) > 1e-9 {
			t.Errorf("CinematicEntrance(%v) = (%v, %v, %v); want (%v, %v, %v)", tt.elapsed, a, s, l, tt.alpha, tt.scale, tt.lift)
		}
	}
}

func TestInfoTitle(t *testing.T) {
	tests := []struct {
		style config.InfoStyle
		want  string
	}{
		{config.InfoDefault, "São Paulo"},
		{config.InfoMinimal, "São Paulo"},
		{config.InfoFlagCenter, "São Paulo"},
		{config.Info3DCard, "SÃO PAULO"},
		{config.InfoCinematic, "SÃO PAULO"},
	}
	for _, tt := range tests {
		if got := InfoTitle("São Paulo", tt.style); got != tt.want {
			t.Errorf("InfoTitle(%q) = %q; want %q", tt.style, got, tt.want)
		}
	}
}
