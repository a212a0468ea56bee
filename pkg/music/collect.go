package music

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"Concert-Scout-Go/pkg/concert"
)

// Collector gathers playlist tracks from a Catalog. It follows pagination
// cursors until the playlist is exhausted and can fan out over several
// playlists at once.
type Collector struct {
	Catalog Catalog
	// Workers bounds how many playlists are walked at once.
	Workers int
	Log     logrus.FieldLogger
}

func (c Collector) workers() int {
	if c.Workers < 1 {
		return concert.DefaultWorkers
	}
	return c.Workers
}

func (c Collector) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// Collect returns every track of the playlist in order. A failure on the first
// page is reported as concert.ErrSourceUnavailable. A failure on a later page
// truncates the result: the tracks gathered so far are returned with partial
// set to true and a nil error. An empty playlist yields no tracks and no error.
func (c Collector) Collect(ctx context.Context, playlistID string) (tracks []Track, partial bool, err error) {
	page, err := c.Catalog.PlaylistPage(ctx, playlistID, "")
	if err != nil {
		return nil, false, fmt.Errorf("playlist %s: %w: %v", playlistID, concert.ErrSourceUnavailable, err)
	}
	tracks = append(tracks, page.Tracks...)
	for page.Next != "" {
		next, err := c.Catalog.PlaylistPage(ctx, playlistID, page.Next)
		if err != nil {
			c.log().WithError(err).WithFields(logrus.Fields{
				"playlist": playlistID,
				"tracks":   len(tracks),
			}).Warn("playlist pagination failed, keeping tracks gathered so far")
			return tracks, true, nil
		}
		page = next
		tracks = append(tracks, page.Tracks...)
	}
	return tracks, false, nil
}

// CollectAll collects several playlists concurrently and concatenates their
// tracks in the order the playlist IDs were given, so first-encountered order
// is stable across runs. Failure of one playlist does not prevent results from
// the others; an error is returned only when every playlist failed.
func (c Collector) CollectAll(ctx context.Context, playlistIDs []string) ([]Track, bool, error) {
	if len(playlistIDs) == 0 {
		return nil, false, nil
	}
	type result struct {
		tracks  []Track
		partial bool
		err     error
	}
	results := make([]result, len(playlistIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())
	for i, id := range playlistIDs {
		g.Go(func() error {
			tracks, partial, err := c.Collect(gctx, id)
			results[i] = result{tracks: tracks, partial: partial, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var merged []Track
	var firstErr error
	partial := false
	successes := 0
	for i, r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			c.log().WithError(r.err).WithField("playlist", playlistIDs[i]).Warn("playlist unavailable")
			partial = true
			continue
		}
		successes++
		partial = partial || r.partial
		merged = append(merged, r.tracks...)
	}
	if successes == 0 {
		return nil, false, firstErr
	}
	return merged, partial, nil
}
