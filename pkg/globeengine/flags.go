package globeengine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"log"
	"strings"
	"sync"

	"github.com/biter777/countries"
	"golang.org/x/time/rate"

	"github.com/sudorandom/expansion-globe/pkg/geo"
	"github.com/sudorandom/expansion-globe/pkg/sources"
	"github.com/sudorandom/expansion-globe/pkg/utils"
)

// Names used by the world atlas that the country table spells differently.
var countryAliases = map[string]string{
	"united states of america": "us",
	"dem. rep. congo":          "cd",
	"congo":                    "cg",
	"central african rep.":     "cf",
	"s. sudan":                 "ss",
	"eq. guinea":               "gq",
	"côte d'ivoire":            "ci",
	"bosnia and herz.":         "ba",
	"dominican rep.":           "do",
	"czechia":                  "cz",
	"north macedonia":          "mk",
	"macedonia":                "mk",
	"russia":                   "ru",
	"south korea":              "kr",
	"north korea":              "kp",
	"laos":                     "la",
	"vietnam":                  "vn",
	"syria":                    "sy",
	"iran":                     "ir",
	"taiwan":                   "tw",
	"palestine":                "ps",
	"w. sahara":                "eh",
	"falkland is.":             "fk",
	"solomon is.":              "sb",
	"fr. s. antarctic lands":   "tf",
	"n. cyprus":                "cy",
	"somaliland":               "so",
	"kosovo":                   "xk",
	"bolivia":                  "bo",
	"venezuela":                "ve",
	"tanzania":                 "tz",
	"moldova":                  "md",
	"eswatini":                 "sz",
	"timor-leste":              "tl",
	"brunei":                   "bn",
}

var stateCodes = map[string]string{
	"alabama": "al", "alaska": "ak", "arizona": "az", "arkansas": "ar",
	"california": "ca", "colorado": "co", "connecticut": "ct", "delaware": "de",
	"district of columbia": "dc", "florida": "fl", "georgia": "ga", "hawaii": "hi",
	"idaho": "id", "illinois": "il", "indiana": "in", "iowa": "ia",
	"kansas": "ks", "kentucky": "ky", "louisiana": "la", "maine": "me",
	"maryland": "md", "massachusetts": "ma", "michigan": "mi", "minnesota": "mn",
	"mississippi": "ms", "missouri": "mo", "montana": "mt", "nebraska": "ne",
	"nevada": "nv", "new hampshire": "nh", "new jersey": "nj", "new mexico": "nm",
	"new york": "ny", "north carolina": "nc", "north dakota": "nd", "ohio": "oh",
	"oklahoma": "ok", "oregon": "or", "pennsylvania": "pa", "rhode island": "ri",
	"south carolina": "sc", "south dakota": "sd", "tennessee": "tn", "texas": "tx",
	"utah": "ut", "vermont": "vt", "virginia": "va", "washington": "wa",
	"west virginia": "wv", "wisconsin": "wi", "wyoming": "wy", "puerto rico": "pr",
}

// FlagCode returns the flagcdn code for a feature: the ISO alpha-2 code for
// countries and us-xx for states. Flags are not shown on the USA map, so
// the code there is always empty.
func FlagCode(f *geo.Feature, mode geo.Mode) string {
	if f == nil || mode == geo.ModeUSA {
		return ""
	}
	name := strings.ToLower(strings.TrimSpace(f.Name))
	if f.Kind == geo.KindState {
		if c, ok := stateCodes[name]; ok {
			return "us-" + c
		}
		return ""
	}
	if c, ok := countryAliases[name]; ok {
		return c
	}
	c := countries.ByName(f.Name)
	if c == countries.Unknown {
		return ""
	}
	return strings.ToLower(c.Alpha2())
}

type FlagResult struct {
	Code  string
	Image image.Image
}

// FlagCache fetches flag images in the background. Downloads are paced and
// persisted in the key/value store, so each flag is fetched once.
type FlagCache struct {
	Store   *utils.KVStore
	Fetcher *utils.Fetcher
	URL     string
	limiter *rate.Limiter

	mu      sync.Mutex
	pending map[string]bool
	results chan FlagResult
}

// NewFlagCache paces downloads at rps requests per second.
func NewFlagCache(store *utils.KVStore, f *utils.Fetcher, rps float64) *FlagCache {
	return &FlagCache{
		Store:   store,
		Fetcher: f,
		URL:     sources.FlagURL,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		pending: make(map[string]bool),
		results: make(chan FlagResult, 64),
	}
}

// Results delivers decoded flags. Drain it from the game loop.
func (c *FlagCache) Results() <-chan FlagResult { return c.results }

// Request starts loading code unless it is already loading or loaded.
func (c *FlagCache) Request(ctx context.Context, code string) {
	if code == "" {
		return
	}
	c.mu.Lock()
	if c.pending[code] {
		c.mu.Unlock()
		return
	}
	c.pending[code] = true
	c.mu.Unlock()

	go func() {
		img, err := c.load(ctx, code)
		if err != nil {
			log.Printf("[FLAGS] Failed to load %s: %v", code, err)
			c.mu.Lock()
			delete(c.pending, code)
			c.mu.Unlock()
			return
		}
		select {
		case c.results <- FlagResult{Code: code, Image: img}:
		case <-ctx.Done():
		}
	}()
}

func (c *FlagCache) load(ctx context.Context, code string) (image.Image, error) {
	key := "flag:" + code
	data, err := c.Store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	if data == nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		data, err = c.Fetcher.ReadAll(ctx, fmt.Sprintf(c.URL, code), "[FLAGS]")
		if err != nil {
			return nil, err
		}
		if err := c.Store.Set(key, data); err != nil {
			log.Printf("[FLAGS] Failed to cache %s: %v", code, err)
		}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", code, err)
	}
	return img, nil
}
