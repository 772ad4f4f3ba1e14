package geo

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// City is a gazetteer entry. State is set for US cities and names the parent
// state; otherwise Country names the parent country.
type City struct {
	Name    string
	Country string
	State   string
	Point   LngLat
}

// Gazetteer maps lowercase city names to entries. The first entry added for a
// name wins.
type Gazetteer struct {
	byName map[string]City
}

func NewGazetteer(cities ...City) *Gazetteer {
	g := &Gazetteer{byName: make(map[string]City, len(cities))}
	for _, c := range cities {
		g.Add(c)
	}
	return g
}

func (g *Gazetteer) Add(c City) bool {
	key := strings.ToLower(strings.TrimSpace(c.Name))
	if key == "" {
		return false
	}
	if _, ok := g.byName[key]; ok {
		return false
	}
	g.byName[key] = c
	return true
}

func (g *Gazetteer) Lookup(name string) (City, bool) {
	if g == nil {
		return City{}, false
	}
	c, ok := g.byName[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

func (g *Gazetteer) Len() int {
	if g == nil {
		return 0
	}
	return len(g.byName)
}

// DefaultGazetteer returns the built-in set of major cities. Country names
// follow the Natural Earth names used by the world boundary dataset.
func DefaultGazetteer() *Gazetteer {
	return NewGazetteer(
		City{Name: "New York City", State: "New York", Point: LngLat{-74.006, 40.7128}},
		City{Name: "Los Angeles", State: "California", Point: LngLat{-118.2437, 34.0522}},
		City{Name: "San Francisco", State: "California", Point: LngLat{-122.4194, 37.7749}},
		City{Name: "Seattle", State: "Washington", Point: LngLat{-122.3321, 47.6062}},
		City{Name: "Chicago", State: "Illinois", Point: LngLat{-87.6298, 41.8781}},
		City{Name: "Houston", State: "Texas", Point: LngLat{-95.3698, 29.7604}},
		City{Name: "Austin", State: "Texas", Point: LngLat{-97.7431, 30.2672}},
		City{Name: "Dallas", State: "Texas", Point: LngLat{-96.797, 32.7767}},
		City{Name: "Miami", State: "Florida", Point: LngLat{-80.1918, 25.7617}},
		City{Name: "Boston", State: "Massachusetts", Point: LngLat{-71.0589, 42.3601}},
		City{Name: "Denver", State: "Colorado", Point: LngLat{-104.9903, 39.7392}},
		City{Name: "Atlanta", State: "Georgia", Point: LngLat{-84.388, 33.749}},
		City{Name: "Phoenix", State: "Arizona", Point: LngLat{-112.074, 33.4484}},
		City{Name: "Las Vegas", State: "Nevada", Point: LngLat{-115.1398, 36.1699}},
		City{Name: "Portland", State: "Oregon", Point: LngLat{-122.6765, 45.5231}},
		City{Name: "Toronto", Country: "Canada", Point: LngLat{-79.3832, 43.6532}},
		City{Name: "Vancouver", Country: "Canada", Point: LngLat{-123.1207, 49.2827}},
		City{Name: "Montreal", Country: "Canada", Point: LngLat{-73.5673, 45.5017}},
		City{Name: "Mexico City", Country: "Mexico", Point: LngLat{-99.1332, 19.4326}},
		City{Name: "Sao Paulo", Country: "Brazil", Point: LngLat{-46.6333, -23.5505}},
		City{Name: "Rio de Janeiro", Country: "Brazil", Point: LngLat{-43.1729, -22.9068}},
		City{Name: "Buenos Aires", Country: "Argentina", Point: LngLat{-58.3816, -34.6037}},
		City{Name: "London", Country: "United Kingdom", Point: LngLat{-0.1276, 51.5072}},
		City{Name: "Paris", Country: "France", Point: LngLat{2.3522, 48.8566}},
		City{Name: "Berlin", Country: "Germany", Point: LngLat{13.405, 52.52}},
		City{Name: "Munich", Country: "Germany", Point: LngLat{11.582, 48.1351}},
		City{Name: "Madrid", Country: "Spain", Point: LngLat{-3.7038, 40.4168}},
		City{Name: "Barcelona", Country: "Spain", Point: LngLat{2.1734, 41.3851}},
		City{Name: "Rome", Country: "Italy", Point: LngLat{12.4964, 41.9028}},
		City{Name: "Milan", Country: "Italy", Point: LngLat{9.19, 45.4642}},
		City{Name: "Amsterdam", Country: "Netherlands", Point: LngLat{4.9041, 52.3676}},
		City{Name: "Dublin", Country: "Ireland", Point: LngLat{-6.2603, 53.3498}},
		City{Name: "Stockholm", Country: "Sweden", Point: LngLat{18.0686, 59.3293}},
		City{Name: "Zurich", Country: "Switzerland", Point: LngLat{8.5417, 47.3769}},
		City{Name: "Istanbul", Country: "Turkey", Point: LngLat{28.9784, 41.0082}},
		City{Name: "Moscow", Country: "Russia", Point: LngLat{37.6173, 55.7558}},
		City{Name: "Dubai", Country: "United Arab Emirates", Point: LngLat{55.2708, 25.2048}},
		City{Name: "Tel Aviv", Country: "Israel", Point: LngLat{34.7818, 32.0853}},
		City{Name: "Cairo", Country: "Egypt", Point: LngLat{31.2357, 30.0444}},
		City{Name: "Lagos", Country: "Nigeria", Point: LngLat{3.3792, 6.5244}},
		City{Name: "Nairobi", Country: "Kenya", Point: LngLat{36.8219, -1.2921}},
		City{Name: "Cape Town", Country: "South Africa", Point: LngLat{18.4241, -33.9249}},
		City{Name: "Mumbai", Country: "India", Point: LngLat{72.8777, 19.076}},
		City{Name: "Bangalore", Country: "India", Point: LngLat{77.5946, 12.9716}},
		City{Name: "Singapore", Country: "Singapore", Point: LngLat{103.8198, 1.3521}},
		City{Name: "Hong Kong", Country: "China", Point: LngLat{114.1694, 22.3193}},
		City{Name: "Shanghai", Country: "China", Point: LngLat{121.4737, 31.2304}},
		City{Name: "Beijing", Country: "China", Point: LngLat{116.4074, 39.9042}},
		City{Name: "Seoul", Country: "South Korea", Point: LngLat{126.978, 37.5665}},
		City{Name: "Tokyo", Country: "Japan", Point: LngLat{139.6503, 35.6762}},
		City{Name: "Osaka", Country: "Japan", Point: LngLat{135.5023, 34.6937}},
		City{Name: "Sydney", Country: "Australia", Point: LngLat{151.2093, -33.8688}},
		City{Name: "Melbourne", Country: "Australia", Point: LngLat{144.9631, -37.8136}},
		City{Name: "Auckland", Country: "New Zealand", Point: LngLat{174.7633, -36.8485}},
	)
}

var ErrCitiesHeader = errors.New("cities csv is missing a required column")

// ParseCitiesCSV adds rows from a cities CSV with a header row containing
// name, country_name, state_name, latitude and longitude columns. Rows for
// names already present are ignored. It returns the number of cities added.
func ParseCitiesCSV(r io.Reader, g *Gazetteer) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read cities header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "country_name", "latitude", "longitude"} {
		if _, ok := col[required]; !ok {
			return 0, fmt.Errorf("%w: %s", ErrCitiesHeader, required)
		}
	}
	stateCol, hasState := col["state_name"]

	added := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return added, fmt.Errorf("read cities row: %w", err)
		}
		field := func(i int) string {
			if i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		lat, errLat := strconv.ParseFloat(field(col["latitude"]), 64)
		lng, errLng := strconv.ParseFloat(field(col["longitude"]), 64)
		if errLat != nil || errLng != nil {
			continue
		}
		c := City{Name: field(col["name"]), Country: field(col["country_name"]), Point: LngLat{lng, lat}}
		if hasState && c.Country == "United States" {
			c.State = field(stateCol)
		}
		if g.Add(c) {
			added++
		}
	}
	return added, nil
}
