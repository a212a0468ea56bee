package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"Concert-Scout-Go/internal/setup"
	"Concert-Scout-Go/pkg/concert"
	"Concert-Scout-Go/pkg/config"
	"Concert-Scout-Go/pkg/db"
	"Concert-Scout-Go/pkg/logging"
	"Concert-Scout-Go/pkg/pipeline"
)

type runOptions struct {
	lat, lng  string
	playlists []string
	artists   []string
	genre     string
	related   []string
	start     string
	end       string
	save      bool
}

var runFlags runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once and print the result",
	RunE:  runPipeline,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.lat, "lat", "", "Search latitude (required)")
	f.StringVar(&runFlags.lng, "lng", "", "Search longitude (required)")
	f.StringSliceVar(&runFlags.playlists, "playlist", nil, "Spotify playlist ID (repeatable)")
	f.StringSliceVar(&runFlags.artists, "artist", nil, "Artist name to search directly (repeatable)")
	f.StringVar(&runFlags.genre, "genre", "", "Genre or classification for the genre category")
	f.StringSliceVar(&runFlags.related, "related", nil, "Related artist name (repeatable); skips related-artist lookup")
	f.StringVar(&runFlags.start, "start", "", "Window start, YYYY-MM-DD or RFC3339; open when empty")
	f.StringVar(&runFlags.end, "end", "", "Window end, YYYY-MM-DD (whole day) or RFC3339; open when empty")
	f.BoolVar(&runFlags.save, "save", false, "Store the run in the configured database")

	_ = runCmd.MarkFlagRequired("lat")
	_ = runCmd.MarkFlagRequired("lng")
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	in, err := buildInput()
	if err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	ctx := cmd.Context()
	if cfg.Pipeline.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Pipeline.RunTimeout)
		defer cancel()
	}
	orch, err := setup.Orchestrator(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("pipeline init: %w", err)
	}
	res := orch.Run(ctx, in)

	if runFlags.save {
		if err := saveRun(ctx, cfg.Database.Path, in, res); err != nil {
			log.WithError(err).Error("save run")
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// buildInput converts the run flags into a pipeline input.
func buildInput() (pipeline.Input, error) {
	in := pipeline.Input{
		PlaylistIDs:    runFlags.playlists,
		Artists:        runFlags.artists,
		Genre:          runFlags.genre,
		Location:       concert.Coordinates{Lat: runFlags.lat, Lng: runFlags.lng},
		RelatedArtists: runFlags.related,
	}
	w, err := concert.ParseDateWindow(runFlags.start, runFlags.end)
	if err != nil {
		return in, fmt.Errorf("date window: %w", err)
	}
	in.DateWindow = w
	return in, nil
}

func saveRun(ctx context.Context, path string, in pipeline.Input, res pipeline.Result) error {
	run, err := db.NewRun(res.RunID, in, res.AggregatedOutput, res.Report)
	if err != nil {
		return err
	}
	database, err := db.New(path)
	if err != nil {
		return err
	}
	defer database.Close()
	// The run context may already be spent after a timeout.
	return database.SaveRun(context.WithoutCancel(ctx), run)
}
