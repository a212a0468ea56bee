package handlers

import (
	"context"
	"fmt"
	"net/http"

	"Concert-Scout-Go/pkg/concert"
	"Concert-Scout-Go/pkg/db"
	"Concert-Scout-Go/pkg/pipeline"
)

// concertsRequest is the body of POST /api/concerts. Window bounds are kept
// as strings so empty and date-only values can be accepted.
type concertsRequest struct {
	PlaylistIDs    []string            `json:"playlist_ids"`
	Artists        []string            `json:"artists"`
	Genre          string              `json:"genre"`
	Location       concert.Coordinates `json:"location"`
	DateWindow     *dateWindowRequest  `json:"date_window"`
	RelatedArtists []string            `json:"related_artists"`
}

type dateWindowRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (req concertsRequest) input() (pipeline.Input, error) {
	in := pipeline.Input{
		PlaylistIDs:    req.PlaylistIDs,
		Artists:        req.Artists,
		Genre:          req.Genre,
		Location:       req.Location,
		RelatedArtists: req.RelatedArtists,
	}
	if req.DateWindow != nil {
		w, err := concert.ParseDateWindow(req.DateWindow.Start, req.DateWindow.End)
		if err != nil {
			return in, fmt.Errorf("date_window: %w", err)
		}
		in.DateWindow = w
	}
	return in, nil
}

// ConcertsJSON runs the pipeline for the JSON input in the request body and
// returns the grouped concerts together with the run report. The location is
// mandatory; everything else is optional. A run that found nothing is still
// a 200 with empty categories.
func (app *Application) ConcertsJSON(w http.ResponseWriter, r *http.Request) {
	if app.Pipeline == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "pipeline not configured")
		return
	}
	var req concertsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if app.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.RunTimeout)
		defer cancel()
	}
	res := app.Pipeline.Run(ctx, in)
	app.saveRun(r.Context(), in, res)
	respondJSON(w, http.StatusOK, res)
}

// saveRun records the run when a store is configured. Failures are logged;
// the caller still gets the result.
func (app *Application) saveRun(ctx context.Context, in pipeline.Input, res pipeline.Result) {
	if app.DB == nil {
		return
	}
	log := app.log().WithField("run_id", res.RunID)
	run, err := db.NewRun(res.RunID, in, res.AggregatedOutput, res.Report)
	if err != nil {
		log.WithError(err).Error("encode run")
		return
	}
	if err := app.DB.SaveRun(ctx, run); err != nil {
		log.WithError(err).Error("store run")
	}
}
