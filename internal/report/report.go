// Package report assembles and persists the quality report for one
// cleaning run: raw/curated/invalid counters, the removal ratio, artifact
// locations, and the top revenue segments.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"bigclean/internal/storage"
)

// Artifacts records where the run's durable outputs were written.
type Artifacts struct {
	StorePath  string `json:"store_path"`
	ExportPath string `json:"export_path"`
}

// Segment is one (country, channel) row of the top-segments ranking.
type Segment struct {
	Country    string  `json:"country"`
	Channel    string  `json:"channel"`
	Events     int64   `json:"events"`
	RevenueUSD float64 `json:"revenue_usd"`
	AvgTicket  float64 `json:"avg_ticket"`
}

// Quality is the immutable result of one run. rows_removed covers both
// invalid rows and duplicate-suppressed rows, which is why it is derived
// from raw minus curated rather than from the invalid counter alone.
type Quality struct {
	RawRows      int64     `json:"raw_rows"`
	CuratedRows  int64     `json:"curated_rows"`
	InvalidRows  int64     `json:"invalid_rows"`
	RowsRemoved  int64     `json:"rows_removed"`
	RemovalRatio float64   `json:"removal_ratio"`
	Artifacts    Artifacts `json:"artifacts"`
	TopSegments  []Segment `json:"top_segments"`
}

// RemovalRatio computes removed/raw rounded to four decimals, or 0.0 when
// no rows were read.
func RemovalRatio(removed, raw int64) float64 {
	if raw == 0 {
		return 0.0
	}
	return math.Round(float64(removed)/float64(raw)*1e4) / 1e4
}

// TopSegments runs the grouped aggregation against the store and shapes the
// rows for the report. The slice is never nil so the report always carries
// a JSON array. Ordering is the store's: revenue descending, ties broken by
// country then channel ascending, at most storage.SegmentLimit entries.
func TopSegments(ctx context.Context, store storage.Store) ([]Segment, error) {
	segs, err := store.AggregateBySegment(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate segments: %w", err)
	}
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		out = append(out, Segment{
			Country:    s.Country,
			Channel:    s.Channel,
			Events:     s.Events,
			RevenueUSD: s.RevenueUSD,
			AvgTicket:  s.AvgTicket,
		})
	}
	return out, nil
}

// JSON renders the report as two-space-indented JSON, the same shape the
// CLI prints to stdout.
func (q Quality) JSON() ([]byte, error) {
	return json.MarshalIndent(q, "", "  ")
}

// Write persists the report to path, creating parent directories as needed.
// Rerunning the pipeline on unchanged inputs reproduces this file
// byte-for-byte.
func (q Quality) Write(path string) error {
	data, err := q.JSON()
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
