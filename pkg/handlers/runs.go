package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"Concert-Scout-Go/pkg/db"
)

// RunsJSON lists recent runs, newest first. The optional 'limit' query
// parameter caps the count.
func (app *Application) RunsJSON(w http.ResponseWriter, r *http.Request) {
	if app.DB == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "db not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > db.DefaultListLimit {
		limit = db.DefaultListLimit
	}
	runs, err := app.DB.ListRuns(r.Context(), limit)
	if err != nil {
		app.log().WithError(err).Error("list runs")
		respondJSONError(w, http.StatusInternalServerError, "failed to load runs")
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	respondJSON(w, http.StatusOK, runs)
}

// RunJSON returns one stored run addressed by the path `/api/runs/{id}`. If
// the ID is unknown a 404 response is returned.
func (app *Application) RunJSON(w http.ResponseWriter, r *http.Request) {
	if app.DB == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "db not configured")
		return
	}
	id := r.PathValue("id")
	if id == "" {
		respondJSONError(w, http.StatusNotFound, "run not found")
		return
	}
	run, err := app.DB.GetRun(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		respondJSONError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		app.log().WithError(err).WithField("run_id", id).Error("load run")
		respondJSONError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	respondJSON(w, http.StatusOK, run)
}
