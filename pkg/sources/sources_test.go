package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sudorandom/expansion-globe/pkg/geo"
	"github.com/sudorandom/expansion-globe/pkg/utils"
)

const atlas = `{
  "type": "Topology",
  "objects": {
    "countries": {
      "type": "GeometryCollection",
      "geometries": [
        {"type": "Polygon", "arcs": [[0]], "properties": {"name": "Squareland"}}
      ]
    }
  },
  "arcs": [[[0, 0], [10, 0], [10, 10], [0, 10], [0, 0]]]
}`

const statesGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "Kansas"},
     "geometry": {"type": "Polygon", "coordinates": [[[-102, 37], [-94.6, 37], [-94.6, 40], [-102, 40], [-102, 37]]]}}
  ]
}`

func dataServer(t *testing.T, statesStatus int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/atlas.json":
			_, _ = w.Write([]byte(atlas))
		case "/states.json":
			w.WriteHeader(statesStatus)
			if statesStatus == http.StatusOK {
				_, _ = w.Write([]byte(statesGeoJSON))
			}
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestBoundariesFetch(t *testing.T) {
	srv := dataServer(t, http.StatusOK)
	defer srv.Close()

	b := &Boundaries{Fetcher: utils.NewFetcher(""), WorldURL: srv.URL + "/atlas.json", StatesURL: srv.URL + "/states.json"}
	tests := []struct {
		mode              geo.Mode
		countries, states int
	}{
		{geo.ModeWorld, 1, 1},
		{geo.ModeUSA, 0, 1},
	}
	for _, tt := range tests {
		countries, states, err := b.Fetch(context.Background(), tt.mode)
		if err != nil {
			t.Fatalf("Fetch(%s) error = %v", tt.mode, err)
		}
		if len(countries) != tt.countries || len(states) != tt.states {
			t.Errorf("Fetch(%s) = %d countries, %d states; want %d, %d", tt.mode, len(countries), len(states), tt.countries, tt.states)
		}
	}

	store := geo.NewLoader(b).Load(context.Background(), geo.ModeWorld)
	if loc := store.Resolve("squareland"); !loc.Resolved || loc.FeatureName() != "Squareland" {
		t.Errorf("Resolve(squareland) = %+v", loc)
	}
	if loc := store.Resolve("Kansas, USA"); !loc.Resolved {
		t.Errorf("Resolve(Kansas, USA) unresolved")
	}
}

func TestBoundariesStatesFailure(t *testing.T) {
	srv := dataServer(t, http.StatusInternalServerError)
	defer srv.Close()
	b := &Boundaries{Fetcher: utils.NewFetcher(""), WorldURL: srv.URL + "/atlas.json", StatesURL: srv.URL + "/states.json"}

	countries, states, err := b.Fetch(context.Background(), geo.ModeWorld)
	if err != nil || len(countries) != 1 || states != nil {
		t.Errorf("Fetch(world) = %d, %v, %v; want countries only", len(countries), states, err)
	}
	if _, _, err := b.Fetch(context.Background(), geo.ModeUSA); err == nil {
		t.Error("Fetch(usa) error = nil; want error")
	}

	b.WorldURL = srv.URL + "/nope.json"
	if _, _, err := b.Fetch(context.Background(), geo.ModeWorld); err == nil {
		t.Error("Fetch(world) with missing atlas error = nil; want error")
	}
}

func TestLoadCitiesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.csv")
	csv := "id,name,state_name,country_name,latitude,longitude\n" +
		"1,Wichita,Kansas,United States,37.69,-97.34\n" +
		"2,Lyon,Auvergne-Rhône-Alpes,France,45.76,4.83\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	g := geo.NewGazetteer()
	n, err := LoadCities(context.Background(), nil, path, g)
	if err != nil || n != 2 {
		t.Fatalf("LoadCities() = %d, %v; want 2, nil", n, err)
	}
	if c, ok := g.Lookup("wichita"); !ok || c.State != "Kansas" {
		t.Errorf("Lookup(wichita) = %+v, %v", c, ok)
	}
	if _, err := LoadCities(context.Background(), nil, filepath.Join(t.TempDir(), "none.csv"), g); err == nil {
		t.Error("LoadCities(missing file) error = nil; want error")
	}
}
