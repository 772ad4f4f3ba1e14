package geo

import (
	"sort"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Resolver is one strategy in the name resolution chain.
type Resolver interface {
	Resolve(s *Store, name string) (Location, bool)
}

type ResolverFunc func(s *Store, name string) (Location, bool)

func (f ResolverFunc) Resolve(s *Store, name string) (Location, bool) { return f(s, name) }

var (
	// QualifiedName matches display names exactly, including the
	// "(Country)" and "(State)" suffixes given to colliding names.
	QualifiedName Resolver = ResolverFunc(resolveQualified)
	// FeatureName matches canonical feature names ignoring case. Countries
	// are searched before states.
	FeatureName Resolver = ResolverFunc(resolveFeatureName)
	// GazetteerCity matches a city and uses its parent region as the feature.
	GazetteerCity Resolver = ResolverFunc(resolveCity)
	// StateSuffix strips a trailing US qualifier and matches states.
	StateSuffix Resolver = ResolverFunc(resolveStateSuffix)
)

func DefaultResolvers() []Resolver {
	return []Resolver{QualifiedName, FeatureName, GazetteerCity, StateSuffix}
}

func at(f *Feature) Location {
	return Location{Feature: f, Point: f.Centroid, Resolved: true}
}

func resolveQualified(s *Store, name string) (Location, bool) {
	if f, ok := s.byDisplay[name]; ok {
		return at(f), true
	}
	return Location{}, false
}

func findByName(features []*Feature, name string) *Feature {
	for _, f := range features {
		if strings.EqualFold(f.Name, name) || strings.EqualFold(f.Display, name) {
			return f
		}
	}
	return nil
}

func resolveFeatureName(s *Store, name string) (Location, bool) {
	if f := findByName(s.countries, name); f != nil {
		return at(f), true
	}
	if f := findByName(s.states, name); f != nil {
		return at(f), true
	}
	return Location{}, false
}

func resolveCity(s *Store, name string) (Location, bool) {
	c, ok := s.gazetteer.Lookup(name)
	if !ok {
		return Location{}, false
	}
	var parent *Feature
	if c.State != "" {
		parent = findByName(s.states, c.State)
	} else if c.Country != "" {
		parent = findByName(s.countries, c.Country)
	}
	return Location{Feature: parent, Point: c.Point, Resolved: true}, true
}

var usSuffixes = []string{", usa", ", us", " usa", " us"}

func resolveStateSuffix(s *Store, name string) (Location, bool) {
	lower := strings.ToLower(name)
	for _, suffix := range usSuffixes {
		if !strings.HasSuffix(lower, suffix) {
			continue
		}
		trimmed := strings.TrimSpace(name[:len(name)-len(suffix)])
		if trimmed == "" {
			continue
		}
		if f := findByName(s.states, trimmed); f != nil {
			return at(f), true
		}
	}
	return Location{}, false
}

// MentionResolver finds the longest feature name contained in a longer piece
// of text, such as "Opening an office in Japan".
type MentionResolver struct {
	matcher  *ahocorasick.Matcher
	patterns []string
	features []*Feature
}

func NewMentionResolver(s *Store) *MentionResolver {
	m := &MentionResolver{}
	for _, f := range append(append([]*Feature{}, s.countries...), s.states...) {
		m.patterns = append(m.patterns, strings.ToLower(f.Name))
		m.features = append(m.features, f)
	}
	m.matcher = ahocorasick.NewStringMatcher(m.patterns)
	return m
}

func (m *MentionResolver) Resolve(_ *Store, name string) (Location, bool) {
	if len(m.patterns) == 0 {
		return Location{}, false
	}
	lower := strings.ToLower(name)
	hits := m.matcher.Match([]byte(lower))
	// Longest first, so "Nigeria" wins over "Niger".
	sort.Slice(hits, func(i, j int) bool {
		if len(m.patterns[hits[i]]) != len(m.patterns[hits[j]]) {
			return len(m.patterns[hits[i]]) > len(m.patterns[hits[j]])
		}
		return hits[i] < hits[j]
	})
	for _, h := range hits {
		if wordBounded(lower, m.patterns[h]) {
			return at(m.features[h]), true
		}
	}
	return Location{}, false
}

func wordBounded(text, word string) bool {
	for start := 0; start < len(text); {
		i := strings.Index(text[start:], word)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(word)
		if (i == 0 || !isLetter(text[i-1])) && (end == len(text) || !isLetter(text[end])) {
			return true
		}
		start = i + 1
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
