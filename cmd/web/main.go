// Command web starts the Concert Scout HTTP server. Configuration is read
// from defaults, an optional YAML file and the environment (see pkg/config).
// The server exposes the JSON API, a health check and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"Concert-Scout-Go/internal/setup"
	"Concert-Scout-Go/pkg/config"
	"Concert-Scout-Go/pkg/db"
	"Concert-Scout-Go/pkg/handlers"
	"Concert-Scout-Go/pkg/logging"
)

const (
	shutdownTimeout = 10 * time.Second
	writeSlack      = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		logrus.Fatalf("logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, err := setup.Orchestrator(ctx, cfg, log)
	if err != nil {
		log.Fatalf("pipeline init: %v", err)
	}

	// Open the SQLite database which stores run history.
	database, err := db.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("db init: %v", err)
	}
	defer database.Close()

	app := &handlers.Application{Pipeline: orch, DB: database, Log: log, RunTimeout: cfg.Pipeline.RunTimeout}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newMux(app),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout(cfg.Pipeline.RunTimeout),
	}

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("http server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("http server shutdown")
		}
	}
}

// writeTimeout leaves room for encoding after a run that used its whole
// budget. Unbounded runs get an unbounded write.
func writeTimeout(run time.Duration) time.Duration {
	if run <= 0 {
		return 0
	}
	return run + writeSlack
}

// newMux registers the API routes and the metrics endpoint.
func newMux(app *handlers.Application) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", app.Routes())
	return mux
}
