// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// It adapts the generic metrics.Backend interface to Prometheus by mapping
// the pipeline's counters onto client_golang CounterVec/SummaryVec
// collectors and pushing them to a Pushgateway instead of exposing a scrape
// endpoint. A push model fits a batch pipeline: the process is gone before
// any scraper would find it. All Prometheus-specific dependencies live
// here so the core remains decoupled from the metric system.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"bigclean/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec // "clean_step_total"
	stepDuration *prometheus.SummaryVec // "clean_step_duration_seconds"
	rowCounter   *prometheus.CounterVec // "clean_rows_total"
	batchCounter *prometheus.CounterVec // "clean_batches_total"
}

// NewBackend constructs a Pushgateway backend. jobName is the Pushgateway
// "job" grouping; gatewayURL is the base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "bigclean"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clean_step_total",
			Help: "Pipeline stage executions, partitioned by run, step, and status.",
		},
		[]string{"run", "step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "clean_step_duration_seconds",
			Help: "Pipeline stage durations in seconds.",
		},
		[]string{"run", "step", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clean_rows_total",
			Help: "Rows handled by the pipeline, partitioned by run and kind.",
		},
		[]string{"run", "kind"},
	)
	batchCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clean_batches_total",
			Help: "Loader batches flushed, partitioned by run.",
		},
		[]string{"run"},
	)

	reg.MustRegister(stepCounter, stepDuration, rowCounter, batchCounter)

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		reg:          reg,
		stepCounter:  stepCounter,
		stepDuration: stepDuration,
		rowCounter:   rowCounter,
		batchCounter: batchCounter,
	}, nil
}

// IncCounter implements metrics.Backend. Unknown metric names are ignored
// so the backend never panics on a new call site.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "clean_step_total":
		b.stepCounter.With(prometheus.Labels(labels)).Add(delta)
	case "clean_rows_total":
		b.rowCounter.With(prometheus.Labels(labels)).Add(delta)
	case "clean_batches_total":
		b.batchCounter.With(prometheus.Labels(labels)).Add(delta)
	}
}

// ObserveDuration implements metrics.Backend.
func (b *Backend) ObserveDuration(name string, value float64, labels metrics.Labels) {
	if name == "clean_step_duration_seconds" {
		b.stepDuration.With(prometheus.Labels(labels)).Observe(value)
	}
}

// Flush pushes all collected metrics to the Pushgateway.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}
