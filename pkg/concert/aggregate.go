package concert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// EventSearcher executes one event search and returns the normalised
// concerts in vendor order.
type EventSearcher interface {
	SearchEvents(ctx context.Context, q Query) ([]Concert, error)
}

// Limits are the per-category caps. All of them are hard limits.
type Limits struct {
	// PerArtist caps each top artist's contribution.
	PerArtist int
	// GenreCandidates is the raw fetch budget for the genre search.
	GenreCandidates int
	// GenreKeep caps the genre category after filtering.
	GenreKeep int
	// RelatedCandidates is the raw fetch budget per related artist.
	RelatedCandidates int
	// RelatedKeep caps the related category across all related artists.
	RelatedKeep int
}

// DefaultLimits returns the standard caps.
func DefaultLimits() Limits {
	return Limits{
		PerArtist:         15,
		GenreCandidates:   20,
		GenreKeep:         6,
		RelatedCandidates: 30,
		RelatedKeep:       15,
	}
}

// DefaultWorkers bounds simultaneous outbound searches.
const DefaultWorkers = 5

// Request carries the resolved inputs of a category search.
type Request struct {
	Location       Coordinates
	DateWindow     *DateWindow
	TopArtists     []string
	Classification string
	RelatedArtists []string
}

// Aggregator runs the three category searches and de-duplicates their
// results by URL with fixed precedence: top artists, then genre, then
// related artists.
type Aggregator struct {
	// Resolver maps artist names to attractions. Without one every artist is
	// searched by keyword.
	Resolver *Resolver
	Events   EventSearcher
	Limits   Limits
	Workers  int
	Log      logrus.FieldLogger
}

func (a *Aggregator) log() logrus.FieldLogger {
	if a.Log == nil {
		return logrus.StandardLogger()
	}
	return a.Log
}

func (a *Aggregator) limits() Limits {
	if a.Limits == (Limits{}) {
		return DefaultLimits()
	}
	return a.Limits
}

func (a *Aggregator) workers() int {
	if a.Workers < 1 {
		return DefaultWorkers
	}
	return a.Workers
}

// Aggregate runs every category. Failures are isolated per query: a failed
// search contributes nothing and the returned error, if any, joins the
// category failures for reporting. The output is always usable. When ctx is
// cancelled the categories completed so far are returned and the rest are
// left empty.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) (AggregatedOutput, error) {
	var out AggregatedOutput
	var errs []error

	top, err := a.TopArtists(ctx, req)
	if ctx.Err() != nil {
		return out, ctx.Err()
	}
	out.TopArtists = top
	errs = append(errs, err)

	seen := NewURLSet(out.TopArtists)
	genre, err := a.Genre(ctx, req, seen)
	if ctx.Err() != nil {
		return out, ctx.Err()
	}
	out.TopGenre = genre
	errs = append(errs, err)

	for _, c := range out.TopGenre {
		seen[c.URL] = struct{}{}
	}
	related, err := a.Related(ctx, req, seen)
	if ctx.Err() != nil {
		return out, ctx.Err()
	}
	out.RelatedArtists = related
	errs = append(errs, err)

	return out, errors.Join(errs...)
}

// TopArtists searches each requested artist, capped at Limits.PerArtist per
// artist, and concatenates the results in artist order. The category is not
// filtered against the others.
func (a *Aggregator) TopArtists(ctx context.Context, req Request) ([]Concert, error) {
	names := uniqueNames(req.TopArtists)
	perArtist, err := a.searchArtists(ctx, req, names, a.limits().PerArtist)
	var out []Concert
	for _, concerts := range perArtist {
		out = append(out, concerts...)
	}
	if err != nil {
		return out, fmt.Errorf("%s: %w", CategoryTopArtists, err)
	}
	return out, nil
}

// Genre runs a single classification search and keeps the first
// Limits.GenreKeep candidates whose URL is not in exclude.
func (a *Aggregator) Genre(ctx context.Context, req Request, exclude URLSet) ([]Concert, error) {
	if req.Classification == "" {
		return nil, nil
	}
	q := GenreQuery(req.Location, req.DateWindow, req.Classification, a.limits().GenreCandidates)
	candidates, err := a.fetch(ctx, q, a.limits().GenreCandidates)
	if err != nil {
		a.log().WithError(err).WithFields(logrus.Fields{
			"category":       CategoryGenre,
			"classification": req.Classification,
		}).Warn("genre search failed")
		return nil, fmt.Errorf("%s: %w", CategoryGenre, err)
	}
	return keepUnseen(nil, candidates, exclude.clone(), a.limits().GenreKeep), nil
}

// Related searches each related artist with a budget of
// Limits.RelatedCandidates and accumulates unseen concerts in artist order
// until Limits.RelatedKeep are kept across all related artists combined.
func (a *Aggregator) Related(ctx context.Context, req Request, exclude URLSet) ([]Concert, error) {
	names := uniqueNames(req.RelatedArtists)
	perArtist, err := a.searchArtists(ctx, req, names, a.limits().RelatedCandidates)
	seen := exclude.clone()
	var out []Concert
	for _, candidates := range perArtist {
		if len(out) >= a.limits().RelatedKeep {
			break
		}
		out = keepUnseen(out, candidates, seen, a.limits().RelatedKeep)
	}
	if err != nil {
		return out, fmt.Errorf("%s: %w", CategoryRelatedArtists, err)
	}
	return out, nil
}

// searchArtists fans the per-artist searches out over a bounded pool and
// joins them before any capping happens. Results are indexed by artist so
// ordering does not depend on completion order. The error is non-nil only
// when every search failed.
func (a *Aggregator) searchArtists(ctx context.Context, req Request, names []string, size int) ([][]Concert, error) {
	results := make([][]Concert, len(names))
	errs := make([]error, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i, name := range names {
		g.Go(func() error {
			results[i], errs[i] = a.searchArtist(gctx, req, name, size)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if len(names) > 0 && failed == len(names) {
		return results, errors.Join(errs...)
	}
	return results, nil
}

func (a *Aggregator) searchArtist(ctx context.Context, req Request, name string, size int) ([]Concert, error) {
	var attraction *Attraction
	if a.Resolver != nil {
		if found, ok := a.Resolver.Resolve(ctx, name); ok {
			attraction = &found
		}
	}
	q := ArtistQuery(req.Location, req.DateWindow, name, attraction, size)
	concerts, err := a.fetch(ctx, q, size)
	if err != nil {
		a.log().WithError(err).WithFields(logrus.Fields{
			"artist":     name,
			"query_mode": q.Mode,
		}).Warn("artist search failed")
		return nil, err
	}
	return concerts, nil
}

// fetch executes q and truncates the result to limit.
func (a *Aggregator) fetch(ctx context.Context, q Query, limit int) ([]Concert, error) {
	concerts, err := a.Events.SearchEvents(ctx, q)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(concerts) > limit {
		concerts = concerts[:limit]
	}
	return concerts, nil
}

// keepUnseen appends candidates whose URL is not in seen to out until out
// holds limit entries. Kept URLs are added to seen.
func keepUnseen(out, candidates []Concert, seen URLSet, limit int) []Concert {
	for _, c := range candidates {
		if len(out) >= limit {
			break
		}
		if seen.Has(c.URL) {
			continue
		}
		seen[c.URL] = struct{}{}
		out = append(out, c)
	}
	return out
}

// uniqueNames drops blank and case-insensitively repeated names, keeping the
// first spelling.
func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}
