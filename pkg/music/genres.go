package music

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"Concert-Scout-Go/pkg/concert"
)

// GenreSet is a set of lowercase genre tags.
type GenreSet map[string]struct{}

// Add inserts the tags, normalising case and surrounding space. Blank tags
// are ignored.
func (s GenreSet) Add(genres ...string) {
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		s[g] = struct{}{}
	}
}

// Sorted returns the members in lexical order.
func (s GenreSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for g := range s {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// CollectGenres fetches the given artists and unions their genre tags.
// Membership is boolean; a genre shared by several artists counts once.
// A catalog failure is reported as concert.ErrSourceUnavailable so callers can
// degrade to an empty set.
func CollectGenres(ctx context.Context, catalog Catalog, artistIDs []string) (GenreSet, error) {
	set := GenreSet{}
	if len(artistIDs) == 0 {
		return set, nil
	}
	artists, err := catalog.Artists(ctx, artistIDs)
	if err != nil {
		return set, fmt.Errorf("artist genres: %w: %v", concert.ErrSourceUnavailable, err)
	}
	for _, a := range artists {
		set.Add(a.Genres...)
	}
	return set, nil
}
