// Package config defines the JSON-serializable configuration for a
// cleaning run. It is intentionally small, explicit, and dependency-free so
// a run description can be loaded from disk and passed through the program without
// additional glue code.
//
// Design goals:
//
//  1. Stability: changes should be additive and backwards-compatible.
//  2. Clarity: Go field names mirror the JSON structure of run files.
//  3. Minimalism: no third-party config libraries; decoding is performed by
//     the standard library, and every absent field has an obvious default.
//
// Example:
//
//	{
//	  "input_glob":  "data/raw/*.csv",
//	  "curated_dir": "data/curated",
//	  "report_path": "reports/quality_report.json",
//	  "batch_size":  50000,
//	  "storage":     { "kind": "sqlite" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Defaults mirror the generator/cleaner conventions: raw partitions under
// data/raw, curated artifacts under data/curated.
const (
	DefaultInputGlob  = "data/raw/*.csv"
	DefaultCuratedDir = "data/curated"
	DefaultReportPath = "reports/quality_report.json"
	DefaultBatchSize  = 50_000
	DefaultStorage    = "sqlite"
)

// Run describes one cleaning run.
type Run struct {
	// InputGlob matches the raw partition files to consume.
	InputGlob string `json:"input_glob"`

	// CuratedDir is the output folder for the store and the CSV export.
	CuratedDir string `json:"curated_dir"`

	// ReportPath is where the quality report JSON is written.
	ReportPath string `json:"report_path"`

	// BatchSize is the loader's flush threshold.
	BatchSize int `json:"batch_size"`

	// Storage selects and configures the curated store backend.
	Storage Storage `json:"storage"`
}

// Storage configures the curated store backend.
type Storage struct {
	// Kind selects the registered backend ("sqlite", "postgres").
	Kind string `json:"kind"`

	// DSN is the backend connection string. For sqlite an empty DSN
	// defaults to <curated_dir>/curated.db.
	DSN string `json:"dsn"`

	// Table is the curated table name; empty means "curated_events".
	Table string `json:"table"`
}

// Load reads and decodes a run config file, then applies defaults.
func Load(path string) (Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return Run{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var r Run
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return Run{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return r.WithDefaults(), nil
}

// WithDefaults returns a copy of r with every unset field replaced by its
// default. BatchSize must end up positive; a negative value from the file
// is normalized to the default rather than erroring, matching the
// fail-soft posture of the rest of the configuration.
func (r Run) WithDefaults() Run {
	if r.InputGlob == "" {
		r.InputGlob = DefaultInputGlob
	}
	if r.CuratedDir == "" {
		r.CuratedDir = DefaultCuratedDir
	}
	if r.ReportPath == "" {
		r.ReportPath = DefaultReportPath
	}
	if r.BatchSize <= 0 {
		r.BatchSize = DefaultBatchSize
	}
	if r.Storage.Kind == "" {
		r.Storage.Kind = DefaultStorage
	}
	return r
}
