package concert

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
)

// AttractionLookup finds the best-matching attraction for an artist name,
// ordered by relevance. It returns ErrNotFound when nothing matched.
type AttractionLookup interface {
	FindAttraction(ctx context.Context, name string) (Attraction, error)
}

type resolution struct {
	attraction Attraction
	found      bool
}

// Resolver maps artist names to attractions, taking the first hit without
// disambiguation. Hits and misses are cached; transport failures are not.
type Resolver struct {
	lookup AttractionLookup
	cache  *expirable.LRU[string, resolution]
	log    logrus.FieldLogger
}

// NewResolver returns a Resolver caching up to size names for ttl. A size
// below one disables caching.
func NewResolver(lookup AttractionLookup, size int, ttl time.Duration, log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Resolver{lookup: lookup, log: log}
	if size > 0 {
		r.cache = expirable.NewLRU[string, resolution](size, nil, ttl)
	}
	return r
}

// Resolve returns the attraction for name and whether one was found. Lookup
// failures are logged and reported as not found so the caller falls back to
// a keyword search.
func (r *Resolver) Resolve(ctx context.Context, name string) (Attraction, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if r.cache != nil {
		if res, ok := r.cache.Get(key); ok {
			return res.attraction, res.found
		}
	}
	a, err := r.lookup.FindAttraction(ctx, name)
	switch {
	case err == nil:
		r.remember(key, resolution{attraction: a, found: true})
		return a, true
	case errors.Is(err, ErrNotFound):
		r.remember(key, resolution{})
		return Attraction{}, false
	default:
		r.log.WithError(err).WithField("artist", name).Warn("attraction lookup failed")
		return Attraction{}, false
	}
}

func (r *Resolver) remember(key string, res resolution) {
	if r.cache != nil {
		r.cache.Add(key, res)
	}
}
