// Package sources fetches the map's boundary and city data.
package sources

import (
	"context"
	"fmt"
	"log"

	geojson "github.com/paulmach/go.geojson"

	"github.com/sudorandom/expansion-globe/pkg/geo"
	"github.com/sudorandom/expansion-globe/pkg/utils"
)

// Boundaries implements geo.Source over the world TopoJSON atlas and the US
// states GeoJSON.
type Boundaries struct {
	Fetcher   *utils.Fetcher
	WorldURL  string
	StatesURL string
}

func NewBoundaries(f *utils.Fetcher) *Boundaries {
	return &Boundaries{Fetcher: f, WorldURL: WorldTopoJSONURL, StatesURL: USStatesURL}
}

// Fetch returns countries (world mode only) and US states. In world mode a
// failed states download is logged and the countries are still returned.
func (b *Boundaries) Fetch(ctx context.Context, mode geo.Mode) (countries, states []*geojson.Feature, err error) {
	if mode == geo.ModeUSA {
		states, err = b.states(ctx)
		return nil, states, err
	}

	data, err := b.Fetcher.ReadAll(ctx, b.WorldURL, "[GEO]")
	if err != nil {
		return nil, nil, fmt.Errorf("fetch world atlas: %w", err)
	}
	countries, err = geo.DecodeTopology(data, "countries")
	if err != nil {
		return nil, nil, fmt.Errorf("decode world atlas: %w", err)
	}

	states, err = b.states(ctx)
	if err != nil {
		log.Printf("[GEO] US states unavailable, continuing with countries only: %v", err)
		return countries, nil, nil
	}
	return countries, states, nil
}

func (b *Boundaries) states(ctx context.Context) ([]*geojson.Feature, error) {
	data, err := b.Fetcher.ReadAll(ctx, b.StatesURL, "[GEO]")
	if err != nil {
		return nil, fmt.Errorf("fetch us states: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode us states: %w", err)
	}
	return fc.Features, nil
}
