package globeengine

import (
	"testing"

	"github.com/sudorandom/expansion-globe/pkg/config"
	"github.com/sudorandom/expansion-globe/pkg/geo"
)

func kinds(passes []Pass) []PassKind {
	out := make([]PassKind, len(passes))
	for i, p := range passes {
		out[i] = p.Kind
	}
	return out
}

func equalKinds(a, b []PassKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPassPlan(t *testing.T) {
	base := config.LayerConfig{Trails: config.SurfaceBase, Visited: config.SurfaceBase}
	full := config.View{ShowCounter: true, ShowCenterIcon: true, ShowMotionLines: true, Layers: base}

	tests := []struct {
		name string
		mode geo.Mode
		view config.View
		want []PassKind
	}{
		{
			name: "world everything",
			mode: geo.ModeWorld,
			view: full,
			want: []PassKind{PassSphere, PassGraticule, PassFeatures, PassHighlights, PassStates, PassTrails, PassAtmosphere, PassMarkers, PassCenterIcon, PassInfo, PassCounter},
		},
		{
			name: "usa has no globe passes",
			mode: geo.ModeUSA,
			view: full,
			want: []PassKind{PassFeatures, PassHighlights, PassTrails, PassMarkers, PassCenterIcon, PassInfo, PassCounter},
		},
		{
			name: "optional passes off",
			mode: geo.ModeUSA,
			view: config.View{Layers: base},
			want: []PassKind{PassFeatures, PassHighlights, PassMarkers, PassInfo},
		},
		{
			name: "trails on atmosphere",
			mode: geo.ModeWorld,
			view: config.View{ShowMotionLines: true, Layers: config.LayerConfig{Trails: config.SurfaceAtmosphere, Visited: config.SurfaceBase}},
			want: []PassKind{PassSphere, PassGraticule, PassFeatures, PassHighlights, PassStates, PassAtmosphere, PassTrails, PassMarkers, PassInfo},
		},
		{
			name: "visited on atmosphere",
			mode: geo.ModeWorld,
			view: config.View{Layers: config.LayerConfig{Trails: config.SurfaceBase, Visited: config.SurfaceAtmosphere}},
			want: []PassKind{PassSphere, PassGraticule, PassFeatures, PassAtmosphere, PassHighlights, PassStates, PassMarkers, PassInfo},
		},
	}

	for _, tt := range tests {
		got := kinds(PassPlan(tt.mode, tt.view))
		if !equalKinds(got, tt.want) {
			t.Errorf("%s: PassPlan() = %v; want %v", tt.name, got, tt.want)
		}
	}
}

func TestPassPlanLayersAreGrouped(t *testing.T) {
	view := config.View{
		ShowCounter:     true,
		ShowMotionLines: true,
		Layers:          config.LayerConfig{Trails: config.SurfaceAtmosphere, Visited: config.SurfaceAtmosphere},
	}
	passes := PassPlan(geo.ModeWorld, view)
	for i := 1; i < len(passes); i++ {
		if passes[i].Layer < passes[i-1].Layer {
			t.Errorf("pass %d (%v on %v) comes after %v", i, passes[i].Kind, passes[i].Layer, passes[i-1].Layer)
		}
	}
	for _, p := range passes {
		if p.Kind == PassAtmosphere && p.Layer != LayerAtmosphere {
			t.Errorf("atmosphere pass on %v; want %v", p.Layer, LayerAtmosphere)
		}
		if (p.Kind == PassMarkers || p.Kind == PassInfo || p.Kind == PassCounter) && p.Layer != LayerScreen {
			t.Errorf("%v pass on %v; want %v", p.Kind, p.Layer, LayerScreen)
		}
	}
}

func TestPassKindString(t *testing.T) {
	if got := PassCenterIcon.String(); got != "center-icon" {
		t.Errorf("PassCenterIcon.String() = %q; want %q", got, "center-icon")
	}
	if got := PassKind(99).String(); got != "unknown" {
		t.Errorf("PassKind(99).String() = %q; want %q", got, "unknown")
	}
	if got := LayerAtmosphere.String(); got != "atmosphere" {
		t.Errorf("LayerAtmosphere.String() = %q; want %q", got, "atmosphere")
	}
}
