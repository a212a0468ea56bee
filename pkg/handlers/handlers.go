// Package handlers implements the JSON HTTP boundary of the concert pipeline:
// starting a run, reading back stored runs and a health check.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"Concert-Scout-Go/pkg/db"
	"Concert-Scout-Go/pkg/pipeline"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input) pipeline.Result
}

// RunStore persists run history.
type RunStore interface {
	SaveRun(ctx context.Context, r db.Run) error
	GetRun(ctx context.Context, id string) (db.Run, error)
	ListRuns(ctx context.Context, limit int) ([]db.Run, error)
}

// Application holds the dependencies shared by the handlers. DB is optional;
// without it runs are not recorded and the history endpoints answer 503.
type Application struct {
	Pipeline Runner
	DB       RunStore
	Log      logrus.FieldLogger
	// RunTimeout bounds a whole pipeline run. Zero means no bound beyond the
	// request context.
	RunTimeout time.Duration
}

func (app *Application) log() logrus.FieldLogger {
	if app.Log == nil {
		return logrus.StandardLogger()
	}
	return app.Log
}

// Routes registers the handlers on a new ServeMux wrapped with the security
// headers middleware.
func (app *Application) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/concerts", app.ConcertsJSON)
	mux.HandleFunc("GET /api/runs", app.RunsJSON)
	mux.HandleFunc("GET /api/runs/{id}", app.RunJSON)
	mux.HandleFunc("GET /healthz", app.Health)
	return SecurityHeaders(mux)
}

// Health reports that the process is serving requests.
func (app *Application) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
