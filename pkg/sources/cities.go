package sources

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/sudorandom/expansion-globe/pkg/geo"
	"github.com/sudorandom/expansion-globe/pkg/utils"
)

// LoadCities extends g with the cities CSV. A local path wins over the
// remote database; an empty path downloads WorldCitiesURL through f.
func LoadCities(ctx context.Context, f *utils.Fetcher, path string, g *geo.Gazetteer) (int, error) {
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return 0, fmt.Errorf("open cities file: %w", err)
		}
		defer func() { _ = file.Close() }()
		return geo.ParseCitiesCSV(file, g)
	}

	rc, err := f.Open(ctx, WorldCitiesURL, "[CITIES]")
	if err != nil {
		return 0, fmt.Errorf("fetch cities: %w", err)
	}
	defer func() {
		if err := rc.Close(); err != nil {
			log.Printf("Error closing cities reader: %v", err)
		}
	}()
	return geo.ParseCitiesCSV(rc, g)
}
