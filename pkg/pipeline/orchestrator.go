// Package pipeline runs the concert aggregation stages in a fixed order over
// a per-run Context. Each stage reports success or error; the orchestrator
// records the outcome and moves on, so a run always finishes with a usable,
// possibly empty, result.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"Concert-Scout-Go/pkg/concert"
	"Concert-Scout-Go/pkg/metrics"
	"Concert-Scout-Go/pkg/music"
)

// DefaultMaxRelated caps discovered related artists when no limit is set.
const DefaultMaxRelated = 10

// ErrMissingLocation is returned by Input.Validate when no coordinates were
// supplied.
var ErrMissingLocation = errors.New("location is required")

// Input is the validated, typed request a run starts from.
type Input struct {
	PlaylistIDs    []string            `json:"playlist_ids,omitempty"`
	Artists        []string            `json:"artists,omitempty"`
	Genre          string              `json:"genre,omitempty"`
	Location       concert.Coordinates `json:"location"`
	DateWindow     *concert.DateWindow `json:"date_window,omitempty"`
	RelatedArtists []string            `json:"related_artists,omitempty"`
}

// Validate checks the mandatory fields.
func (in Input) Validate() error {
	if in.Location.IsZero() {
		return ErrMissingLocation
	}
	if w := in.DateWindow; w != nil && !w.Start.IsZero() && !w.End.IsZero() && w.End.Before(w.Start) {
		return errors.New("date window ends before it starts")
	}
	return nil
}

// RelatedFinder lists artists related to a named artist.
type RelatedFinder interface {
	RelatedArtists(ctx context.Context, name string) ([]string, error)
}

// Result is the outcome of one run.
type Result struct {
	RunID string `json:"run_id"`
	concert.AggregatedOutput
	Report Report `json:"report"`
}

// Orchestrator wires the stages together. Catalog is only needed when inputs
// name playlists; Related is only consulted when inputs carry no related
// artists.
type Orchestrator struct {
	Catalog    music.Catalog
	Aggregator *concert.Aggregator
	Related    RelatedFinder
	// TopK is the number of playlist artists kept after ranking.
	TopK int
	// MaxRelated caps discovered related artists. Zero selects
	// DefaultMaxRelated.
	MaxRelated int
	// Workers bounds simultaneous related-artist lookups.
	Workers int
	Log     logrus.FieldLogger
}

func (o *Orchestrator) log() logrus.FieldLogger {
	if o.Log == nil {
		return logrus.StandardLogger()
	}
	return o.Log
}

// stageResult is what a stage hands back to the state machine.
type stageResult struct {
	err     error
	partial bool
}

// Run executes every stage in order and returns the packaged result. It never
// fails: stage errors are recorded in the report and their contribution is
// left empty. When ctx is cancelled the remaining stages still run against
// whatever was gathered, so the result holds the categories completed before
// cancellation.
func (o *Orchestrator) Run(ctx context.Context, in Input) Result {
	runID := uuid.NewString()
	log := o.log().WithField("run_id", runID)
	pc := NewContext()
	started := time.Now()

	var report Report
	var out concert.AggregatedOutput
	for state := StateIngest; state != StateDone; state = state.next() {
		begin := time.Now()
		var res stageResult
		switch state {
		case StateIngest:
			res = o.ingest(ctx, log, in, pc)
		case StateResolveRelated:
			res = o.resolveRelated(ctx, log, in, pc)
		case StateSearchConcerts:
			res = o.searchConcerts(ctx, pc)
		case StateAggregate:
			out = o.pack(pc)
		}

		sr := StageReport{State: state, Status: StatusSuccess, Partial: res.partial, Duration: time.Since(begin)}
		entry := log.WithFields(logrus.Fields{"stage": state.String(), "duration": sr.Duration})
		if res.err != nil {
			sr.Status = StatusError
			sr.Error = res.err.Error()
			entry.WithError(res.err).Warn("stage failed")
		} else {
			entry.WithField("partial", sr.Partial).Info("stage complete")
		}
		metrics.RecordStage(state.String(), string(sr.Status))
		report = append(report, sr)
	}

	sizes := make(map[string]int, len(concert.Categories))
	for _, c := range concert.Categories {
		sizes[string(c)] = len(out.Get(c))
	}
	metrics.RecordRun(time.Since(started), sizes)
	log.WithFields(logrus.Fields{
		"top_artists":     sizes[string(concert.CategoryTopArtists)],
		"top_genre":       sizes[string(concert.CategoryGenre)],
		"related_artists": sizes[string(concert.CategoryRelatedArtists)],
	}).Info("pipeline done")
	return Result{RunID: runID, AggregatedOutput: out, Report: report}
}

// ingest records the search parameters, the explicit artists and the top
// artists and genres of the playlists. A catalog outage on the genre lookup
// only marks the stage partial.
func (o *Orchestrator) ingest(ctx context.Context, log logrus.FieldLogger, in Input, pc *Context) stageResult {
	var res stageResult
	_ = pc.SetLocation(in.Location)
	_ = pc.SetDateWindow(in.DateWindow)
	pc.AppendTopArtists(in.Artists...)

	if len(in.PlaylistIDs) > 0 {
		res = o.ingestPlaylists(ctx, log, in.PlaylistIDs, pc)
	}

	classification := ""
	if g := strings.TrimSpace(in.Genre); g != "" {
		classification = concert.Classification(g)
		if classification == "" {
			classification = g
		}
	} else {
		classification = concert.MapGenre(pc.Genres())
	}
	_ = pc.SetClassification(classification)
	return res
}

func (o *Orchestrator) ingestPlaylists(ctx context.Context, log logrus.FieldLogger, ids []string, pc *Context) stageResult {
	if o.Catalog == nil {
		return stageResult{err: errors.New("no catalog configured for playlist input")}
	}
	tracks, partial, err := music.Collector{Catalog: o.Catalog, Workers: o.workers(), Log: log}.CollectAll(ctx, ids)
	if err != nil {
		return stageResult{err: err}
	}
	ranked := music.TopArtists(tracks, o.TopK)
	pc.AppendTopArtists(music.Names(ranked)...)

	genres, err := music.CollectGenres(ctx, o.Catalog, music.IDs(ranked))
	if err != nil {
		log.WithError(err).WithField("stage", StateIngest.String()).Warn("artist genres unavailable")
		partial = true
	}
	pc.AppendGenres(genres.Sorted()...)
	return stageResult{partial: partial}
}

// resolveRelated uses the supplied related artists or, failing that, asks
// the finder about every top artist. Discovered names are de-duplicated,
// exclude the top artists and are capped at MaxRelated.
func (o *Orchestrator) resolveRelated(ctx context.Context, log logrus.FieldLogger, in Input, pc *Context) stageResult {
	if len(in.RelatedArtists) > 0 {
		pc.AppendRelatedArtists(in.RelatedArtists...)
		return stageResult{}
	}
	top := pc.TopArtists()
	if o.Related == nil || len(top) == 0 {
		return stageResult{}
	}

	found := make([][]string, len(top))
	errs := make([]error, len(top))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers())
	for i, name := range top {
		g.Go(func() error {
			found[i], errs[i] = o.Related.RelatedArtists(gctx, name)
			if errs[i] != nil {
				log.WithError(errs[i]).WithFields(logrus.Fields{
					"artist": name,
					"stage":  StateResolveRelated.String(),
				}).Warn("related artist lookup failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]struct{}, len(top))
	for _, name := range top {
		seen[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	limit := o.maxRelated()
	var related []string
	failed := 0
	for i := range top {
		if errs[i] != nil {
			failed++
			continue
		}
		for _, name := range found[i] {
			key := strings.ToLower(strings.TrimSpace(name))
			if key == "" || len(related) >= limit {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			related = append(related, name)
		}
	}
	if failed == len(top) {
		return stageResult{err: errors.Join(errs...)}
	}
	pc.AppendRelatedArtists(related...)
	return stageResult{partial: failed > 0}
}

// searchConcerts runs the three category searches. Categories that
// completed are kept even when another one failed.
func (o *Orchestrator) searchConcerts(ctx context.Context, pc *Context) stageResult {
	if o.Aggregator == nil {
		return stageResult{err: errors.New("no aggregator configured")}
	}
	req := concert.Request{
		Location:       pc.Location(),
		DateWindow:     pc.DateWindow(),
		TopArtists:     pc.TopArtists(),
		Classification: pc.Classification(),
		RelatedArtists: pc.RelatedArtists(),
	}
	out, err := o.Aggregator.Aggregate(ctx, req)
	for _, c := range concert.Categories {
		pc.AppendConcerts(c, out.Get(c)...)
	}
	if err != nil {
		return stageResult{err: err, partial: true}
	}
	return stageResult{}
}

// pack builds the final output from the context. Precedence and caps are
// applied again so the output holds them whatever the stages appended. The
// top-artist category is taken as is.
func (o *Orchestrator) pack(pc *Context) concert.AggregatedOutput {
	limits := concert.DefaultLimits()
	if o.Aggregator != nil && o.Aggregator.Limits != (concert.Limits{}) {
		limits = o.Aggregator.Limits
	}
	top := pc.Concerts(concert.CategoryTopArtists)
	if top == nil {
		top = []concert.Concert{}
	}
	seen := concert.NewURLSet(top)
	return concert.AggregatedOutput{
		TopArtists:     top,
		TopGenre:       keep(pc.Concerts(concert.CategoryGenre), seen, limits.GenreKeep),
		RelatedArtists: keep(pc.Concerts(concert.CategoryRelatedArtists), seen, limits.RelatedKeep),
	}
}

// keep returns the concerts whose URL is not in seen, up to limit, and adds
// their URLs to seen. The result is never nil so it encodes as an empty JSON
// array.
func keep(concerts []concert.Concert, seen concert.URLSet, limit int) []concert.Concert {
	out := make([]concert.Concert, 0, len(concerts))
	for _, c := range concerts {
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

func (o *Orchestrator) workers() int {
	if o.Workers < 1 {
		return concert.DefaultWorkers
	}
	return o.Workers
}

func (o *Orchestrator) maxRelated() int {
	if o.MaxRelated < 1 {
		return DefaultMaxRelated
	}
	return o.MaxRelated
}
