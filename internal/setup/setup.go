// Package setup wires the pipeline collaborators from configuration. It is
// shared by the web server and the command line tool.
package setup

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"Concert-Scout-Go/pkg/concert"
	"Concert-Scout-Go/pkg/config"
	"Concert-Scout-Go/pkg/pipeline"
	"Concert-Scout-Go/pkg/spotify"
	"Concert-Scout-Go/pkg/ticketmaster"
)

// Orchestrator builds a pipeline orchestrator from cfg. Spotify is optional:
// without credentials playlist input fails its stage and related artists are
// only taken from the input.
func Orchestrator(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*pipeline.Orchestrator, error) {
	if err := cfg.RequireTicketmaster(); err != nil {
		return nil, err
	}
	tm := ticketmaster.NewClient(cfg.Ticketmaster.APIKey,
		ticketmaster.WithBaseURL(cfg.Ticketmaster.BaseURL),
		ticketmaster.WithHTTPClient(&http.Client{Timeout: cfg.Ticketmaster.Timeout}),
		ticketmaster.WithRate(cfg.Ticketmaster.RatePerSecond),
		ticketmaster.WithLogger(log),
	)
	o := &pipeline.Orchestrator{
		Aggregator: &concert.Aggregator{
			Resolver: concert.NewResolver(tm, cfg.Cache.AttractionSize, cfg.Cache.AttractionTTL, log),
			Events:   tm,
			Workers:  cfg.Pipeline.Workers,
			Log:      log,
		},
		TopK:       cfg.Pipeline.TopArtists,
		MaxRelated: cfg.Pipeline.MaxRelated,
		Workers:    cfg.Pipeline.Workers,
		Log:        log,
	}
	if !cfg.Spotify.Enabled() {
		log.Warn("spotify credentials not configured, playlist input and related-artist discovery disabled")
		return o, nil
	}
	sc, err := spotify.NewSpotifyClient(ctx, cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
	if err != nil {
		return nil, err
	}
	o.Catalog = sc
	o.Related = sc
	return o, nil
}
