// Package geo holds the named boundary features for a map mode and resolves
// free-text place names to features and coordinates.
package geo

import (
	"fmt"
	"math"
	"strings"

	geojson "github.com/paulmach/go.geojson"
)

// Mode selects which boundary datasets are loaded.
type Mode string

const (
	ModeWorld Mode = "world"
	ModeUSA   Mode = "usa"
)

// ParseMode accepts "world" or "usa" in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeWorld:
		return ModeWorld, nil
	case ModeUSA:
		return ModeUSA, nil
	}
	return "", fmt.Errorf("unknown map mode %q", s)
}

// LngLat is a geographic coordinate in degrees.
type LngLat struct {
	Lng, Lat float64
}

func (p LngLat) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", p.Lng, p.Lat)
}

// Valid reports whether both components are finite and in range.
func (p LngLat) Valid() bool {
	if math.IsNaN(p.Lng) || math.IsNaN(p.Lat) || math.IsInf(p.Lng, 0) || math.IsInf(p.Lat, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -540 && p.Lng <= 540
}

// Kind distinguishes the two boundary datasets.
type Kind int

const (
	KindCountry Kind = iota
	KindState
)

func (k Kind) String() string {
	if k == KindState {
		return "State"
	}
	return "Country"
}

// Feature is one named polygon region. It is immutable once built.
type Feature struct {
	Name     string
	Display  string
	Kind     Kind
	Geometry *geojson.Geometry
	Centroid LngLat
}

// Key identifies the feature within its store. It is the display name, which
// carries a kind suffix when a country and a state share a name.
func (f *Feature) Key() string {
	if f.Display != "" {
		return f.Display
	}
	return f.Name
}

// Polygons returns the geometry as a list of polygons regardless of whether
// it was stored as a Polygon or a MultiPolygon.
func (f *Feature) Polygons() [][][][]float64 {
	if f == nil || f.Geometry == nil {
		return nil
	}
	switch {
	case f.Geometry.IsPolygon():
		return [][][][]float64{f.Geometry.Polygon}
	case f.Geometry.IsMultiPolygon():
		return f.Geometry.MultiPolygon
	}
	return nil
}

// Location is the result of resolving a place name. Feature is nil for
// bare coordinates (a city whose parent region is not loaded).
type Location struct {
	Feature  *Feature
	Point    LngLat
	Resolved bool
}

// FeatureName returns the canonical name of the enclosing feature, if any.
func (l Location) FeatureName() string {
	if l.Feature == nil {
		return ""
	}
	return l.Feature.Name
}

// FeatureKey returns the enclosing feature's Key, if any.
func (l Location) FeatureKey() string {
	if l.Feature == nil {
		return ""
	}
	return l.Feature.Key()
}

func newFeature(name string, kind Kind, g *geojson.Geometry) *Feature {
	f := &Feature{Name: name, Display: name, Kind: kind, Geometry: g}
	f.Centroid = Centroid(f.Polygons())
	return f
}
