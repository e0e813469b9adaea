// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the cleaning pipeline.
//
// It exposes a narrow interface (Backend) focused on counters and timing
// data, with a global, pluggable backend that defaults to a no-op
// implementation, so metric calls are always safe even when no real backend
// is configured. Concrete metric systems stay isolated in subpackages
// (currently the Prometheus Pushgateway backend in prompush); the rest of
// the codebase depends only on this package.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records a duration-style value.
	ObserveDuration(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels) {}

func (nopBackend) ObserveDuration(name string, value float64, labels Labels) {}

func (nopBackend) Flush() error { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency plus success/failure for one pipeline stage
// (list, recreate, ingest, export, aggregate, report).
func RecordStep(run, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"run":    run,
		"step":   step,
		"status": status,
	}
	backend.IncCounter("clean_step_total", 1, lbls)
	backend.ObserveDuration("clean_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given run and kind.
//
// Kinds mirror the quality-report fields:
//   - "raw"
//   - "invalid"
//   - "inserted"
//   - "suppressed"
func RecordRows(run, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("clean_rows_total", float64(delta), Labels{
		"run":  run,
		"kind": kind,
	})
}

// RecordBatches increments the flushed-batch counter for the given run.
func RecordBatches(run string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("clean_batches_total", float64(delta), Labels{
		"run": run,
	})
}
