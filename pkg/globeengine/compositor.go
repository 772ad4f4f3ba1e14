package globeengine

import (
	"sort"

	"github.com/sudorandom/expansion-globe/pkg/config"
	"github.com/sudorandom/expansion-globe/pkg/geo"
)

// Layer is the physical surface a pass renders onto. Layers are composited
// in declaration order.
type Layer int

const (
	LayerBase Layer = iota
	LayerAtmosphere
	LayerScreen
)

func (l Layer) String() string {
	switch l {
	case LayerBase:
		return "base"
	case LayerAtmosphere:
		return "atmosphere"
	case LayerScreen:
		return "screen"
	}
	return "unknown"
}

type PassKind int

const (
	PassSphere PassKind = iota
	PassGraticule
	PassFeatures
	PassHighlights
	PassStates
	PassAtmosphere
	PassTrails
	PassMarkers
	PassCenterIcon
	PassInfo
	PassCounter
)

var passNames = map[PassKind]string{
	PassSphere:     "sphere",
	PassGraticule:  "graticule",
	PassFeatures:   "features",
	PassHighlights: "highlights",
	PassStates:     "states",
	PassAtmosphere: "atmosphere",
	PassTrails:     "trails",
	PassMarkers:    "markers",
	PassCenterIcon: "center-icon",
	PassInfo:       "info",
	PassCounter:    "counter",
}

func (k PassKind) String() string {
	if n, ok := passNames[k]; ok {
		return n
	}
	return "unknown"
}

type Pass struct {
	Kind  PassKind
	Layer Layer
}

func layerFor(s config.Surface) Layer {
	if s == config.SurfaceAtmosphere {
		return LayerAtmosphere
	}
	return LayerBase
}

// PassPlan returns the passes to run for a frame, back to front. Passes are
// grouped by layer; within a layer they keep their fixed order.
func PassPlan(mode geo.Mode, view config.View) []Pass {
	globe := mode != geo.ModeUSA
	var passes []Pass
	add := func(k PassKind, l Layer) { passes = append(passes, Pass{Kind: k, Layer: l}) }

	if globe {
		add(PassSphere, LayerBase)
		add(PassGraticule, LayerBase)
	}
	add(PassFeatures, LayerBase)
	add(PassHighlights, layerFor(view.Layers.Visited))
	if globe {
		add(PassStates, layerFor(view.Layers.Visited))
		add(PassAtmosphere, LayerAtmosphere)
	}
	if view.ShowMotionLines {
		add(PassTrails, layerFor(view.Layers.Trails))
	}
	add(PassMarkers, LayerScreen)
	if view.ShowCenterIcon {
		add(PassCenterIcon, LayerScreen)
	}
	add(PassInfo, LayerScreen)
	if view.ShowCounter {
		add(PassCounter, LayerScreen)
	}

	// The glow sits under everything else routed to the atmosphere.
	sort.SliceStable(passes, func(i, j int) bool {
		if passes[i].Layer != passes[j].Layer {
			return passes[i].Layer < passes[j].Layer
		}
		return passes[i].Kind == PassAtmosphere && passes[j].Kind != PassAtmosphere
	})
	return passes
}
