// Package metrics registers the Prometheus collectors used across the
// application. Collectors are package level and registered with the default
// registry, which cmd/web exposes on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StageTotal counts pipeline stage completions by outcome.
	StageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concertscout_stage_total",
			Help: "Pipeline stage completions by stage and status",
		},
		[]string{"stage", "status"},
	)

	// ExternalRequests counts outbound calls to collaborating services.
	ExternalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concertscout_external_requests_total",
			Help: "Outbound requests by service and outcome",
		},
		[]string{"service", "outcome"},
	)

	// CategorySize observes the number of concerts kept per category.
	CategorySize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "concertscout_category_size",
			Help:    "Concerts kept per category in a pipeline run",
			Buckets: []float64{0, 1, 3, 6, 10, 15, 30, 60, 120},
		},
		[]string{"category"},
	)

	// PipelineDuration observes end-to-end pipeline run time.
	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "concertscout_pipeline_duration_seconds",
			Help:    "Duration of pipeline runs in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 90},
		},
	)

	// CircuitBreakerState reports breaker state: 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "concertscout_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

// RecordExternal counts one outbound call. A nil error is recorded as
// "success".
func RecordExternal(service string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	ExternalRequests.WithLabelValues(service, outcome).Inc()
}

// RecordStage counts one stage completion.
func RecordStage(stage, status string) {
	StageTotal.WithLabelValues(stage, status).Inc()
}

// RecordRun observes a finished pipeline run and its category sizes.
func RecordRun(d time.Duration, sizes map[string]int) {
	PipelineDuration.Observe(d.Seconds())
	for category, n := range sizes {
		CategorySize.WithLabelValues(category).Observe(float64(n))
	}
}
