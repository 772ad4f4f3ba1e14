package sources

const (
	WorldTopoJSONURL = "https://cdn.jsdelivr.net/npm/world-atlas@2/countries-110m.json"
	USStatesURL      = "https://raw.githubusercontent.com/PublicaMundi/MappingAPI/master/data/geojson/us-states.json"
	WorldCitiesURL   = "https://raw.githubusercontent.com/dr5hn/countries-states-cities-database/master/csv/cities.csv"

	// FlagURL takes a lowercase ISO 3166 alpha-2 code, or us-xx for a state.
	FlagURL = "https://flagcdn.com/w160/%s.png"
)
