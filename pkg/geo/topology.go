package geo

import (
	"encoding/json"
	"errors"
	"fmt"

	geojson "github.com/paulmach/go.geojson"
)

var ErrNotTopology = errors.New("document is not a topology")

type topology struct {
	Type      string                `json:"type"`
	Transform *topoTransform        `json:"transform"`
	Objects   map[string]topoObject `json:"objects"`
	Arcs      [][][]float64         `json:"arcs"`
}

type topoTransform struct {
	Scale     [2]float64 `json:"scale"`
	Translate [2]float64 `json:"translate"`
}

type topoObject struct {
	Type       string         `json:"type"`
	Geometries []topoGeometry `json:"geometries"`
}

type topoGeometry struct {
	Type       string                 `json:"type"`
	Arcs       json.RawMessage        `json:"arcs"`
	Properties map[string]interface{} `json:"properties"`
}

// DecodeTopology expands the named object of a TopoJSON document into GeoJSON
// polygon features. Geometries other than Polygon and MultiPolygon are skipped.
func DecodeTopology(data []byte, object string) ([]*geojson.Feature, error) {
	var topo topology
	if err := json.Unmarshal(data, &topo); err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}
	if topo.Type != "Topology" {
		return nil, ErrNotTopology
	}
	obj, ok := topo.Objects[object]
	if !ok {
		return nil, fmt.Errorf("topology has no object %q", object)
	}

	arcs := decodeArcs(topo.Arcs, topo.Transform)
	features := make([]*geojson.Feature, 0, len(obj.Geometries))
	for _, g := range obj.Geometries {
		var geom *geojson.Geometry
		switch g.Type {
		case "Polygon":
			var rings [][]int
			if err := json.Unmarshal(g.Arcs, &rings); err != nil {
				return nil, fmt.Errorf("decode polygon arcs: %w", err)
			}
			geom = geojson.NewPolygonGeometry(stitchPolygon(arcs, rings))
		case "MultiPolygon":
			var polys [][][]int
			if err := json.Unmarshal(g.Arcs, &polys); err != nil {
				return nil, fmt.Errorf("decode multipolygon arcs: %w", err)
			}
			out := make([][][][]float64, 0, len(polys))
			for _, rings := range polys {
				out = append(out, stitchPolygon(arcs, rings))
			}
			geom = geojson.NewMultiPolygonGeometry(out...)
		default:
			continue
		}
		f := geojson.NewFeature(geom)
		for k, v := range g.Properties {
			f.SetProperty(k, v)
		}
		features = append(features, f)
	}
	return features, nil
}

// decodeArcs converts quantized, delta-encoded arcs into absolute positions.
func decodeArcs(raw [][][]float64, t *topoTransform) [][][]float64 {
	out := make([][][]float64, len(raw))
	for i, arc := range raw {
		pts := make([][]float64, 0, len(arc))
		var x, y float64
		for _, p := range arc {
			if len(p) < 2 {
				continue
			}
			if t == nil {
				pts = append(pts, []float64{p[0], p[1]})
				continue
			}
			x += p[0]
			y += p[1]
			pts = append(pts, []float64{x*t.Scale[0] + t.Translate[0], y*t.Scale[1] + t.Translate[1]})
		}
		out[i] = pts
	}
	return out
}

func stitchPolygon(arcs [][][]float64, rings [][]int) [][][]float64 {
	poly := make([][][]float64, 0, len(rings))
	for _, ring := range rings {
		poly = append(poly, stitchRing(arcs, ring))
	}
	return poly
}

// stitchRing joins arcs end to end. A negative index ~i refers to arc i
// traversed backwards. Consecutive arcs share an endpoint, so the first point
// of every arc after the first is dropped.
func stitchRing(arcs [][][]float64, indexes []int) [][]float64 {
	var ring [][]float64
	for _, idx := range indexes {
		reversed := idx < 0
		if reversed {
			idx = ^idx
		}
		if idx < 0 || idx >= len(arcs) {
			continue
		}
		arc := arcs[idx]
		n := len(arc)
		for k := 0; k < n; k++ {
			j := k
			if reversed {
				j = n - 1 - k
			}
			if k == 0 && len(ring) > 0 {
				continue
			}
			ring = append(ring, arc[j])
		}
	}
	return ring
}
