package geo

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	geojson "github.com/paulmach/go.geojson"
)

// Source fetches the raw boundary features for a mode. In usa mode only
// states are expected.
type Source interface {
	Fetch(ctx context.Context, mode Mode) (countries, states []*geojson.Feature, err error)
}

// Store is the loaded, immutable feature set for one map mode.
type Store struct {
	mode      Mode
	countries []*Feature
	states    []*Feature
	byDisplay map[string]*Feature
	names     []string
	gazetteer *Gazetteer
	resolvers []Resolver
}

type Option func(*Store)

// WithGazetteer replaces the built-in city gazetteer.
func WithGazetteer(g *Gazetteer) Option {
	return func(s *Store) { s.gazetteer = g }
}

// WithMentions appends a resolver that finds feature names mentioned inside
// longer free text.
func WithMentions() Option {
	return func(s *Store) { s.resolvers = append(s.resolvers, NewMentionResolver(s)) }
}

// NewStore builds a store from raw features. Features without a name or a
// polygon geometry are dropped.
func NewStore(mode Mode, countries, states []*geojson.Feature, opts ...Option) *Store {
	s := &Store{
		mode:      mode,
		byDisplay: make(map[string]*Feature),
		gazetteer: DefaultGazetteer(),
		resolvers: DefaultResolvers(),
	}
	if mode != ModeUSA {
		s.countries = buildFeatures(countries, KindCountry)
	}
	s.states = buildFeatures(states, KindState)

	countryNames := make(map[string]bool, len(s.countries))
	for _, f := range s.countries {
		countryNames[strings.ToLower(f.Name)] = true
	}
	collides := make(map[string]bool)
	for _, f := range s.states {
		if countryNames[strings.ToLower(f.Name)] {
			collides[strings.ToLower(f.Name)] = true
		}
	}
	for _, f := range append(append([]*Feature{}, s.countries...), s.states...) {
		if collides[strings.ToLower(f.Name)] {
			f.Display = f.Name + " (" + f.Kind.String() + ")"
		}
		if _, ok := s.byDisplay[f.Display]; !ok {
			s.byDisplay[f.Display] = f
			s.names = append(s.names, f.Display)
		}
	}
	sort.Strings(s.names)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

func buildFeatures(raw []*geojson.Feature, kind Kind) []*Feature {
	out := make([]*Feature, 0, len(raw))
	for _, rf := range raw {
		if rf == nil || rf.Geometry == nil {
			continue
		}
		if !rf.Geometry.IsPolygon() && !rf.Geometry.IsMultiPolygon() {
			continue
		}
		name := strings.TrimSpace(rf.PropertyMustString("name", ""))
		if name == "" {
			continue
		}
		out = append(out, newFeature(name, kind, rf.Geometry))
	}
	return out
}

func (s *Store) Mode() Mode { return s.mode }

// Names returns the sorted, de-duplicated display names.
func (s *Store) Names() []string { return append([]string(nil), s.names...) }

func (s *Store) Countries() []*Feature { return s.countries }

func (s *Store) States() []*Feature { return s.states }

// Empty reports whether no features are loaded.
func (s *Store) Empty() bool { return len(s.countries) == 0 && len(s.states) == 0 }

// Resolve runs the resolver chain in order and returns the first match. It
// never fails: an unmatched name yields a Location with Resolved false.
func (s *Store) Resolve(name string) Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return Location{}
	}
	for _, r := range s.resolvers {
		if loc, ok := r.Resolve(s, name); ok {
			return loc
		}
	}
	return Location{}
}

// ResolveAt resolves a name that carries explicit coordinates. The point
// always wins; the enclosing feature is still looked up by name.
func (s *Store) ResolveAt(name string, point *LngLat) Location {
	if point == nil || !point.Valid() {
		return s.Resolve(name)
	}
	loc := s.Resolve(name)
	return Location{Feature: loc.Feature, Point: *point, Resolved: true}
}

// Loader caches one Store per mode.
type Loader struct {
	src  Source
	opts []Option

	mu    sync.Mutex
	cache map[Mode]*Store
}

func NewLoader(src Source, opts ...Option) *Loader {
	return &Loader{src: src, opts: opts, cache: make(map[Mode]*Store)}
}

// Load returns the cached store for mode, fetching it on first use. A failed
// fetch is logged and yields an empty store that is not cached, so a later
// call retries.
func (l *Loader) Load(ctx context.Context, mode Mode) *Store {
	l.mu.Lock()
	if s, ok := l.cache[mode]; ok {
		l.mu.Unlock()
		return s
	}
	l.mu.Unlock()

	countries, states, err := l.src.Fetch(ctx, mode)
	if err != nil {
		log.Printf("[GEO] Failed to load %s boundaries: %v", mode, err)
		return NewStore(mode, nil, nil, l.opts...)
	}
	s := NewStore(mode, countries, states, l.opts...)
	log.Printf("[GEO] Loaded %d countries and %d states for %s mode", len(s.countries), len(s.states), mode)

	l.mu.Lock()
	l.cache[mode] = s
	l.mu.Unlock()
	return s
}
