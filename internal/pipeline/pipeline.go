// Package pipeline drives one cleaning run end to end: it resolves the raw
// partition files, streams their rows through normalization into the
// batched loader, exports the curated store, and assembles the quality
// report.
//
// The core is strictly sequential: files are consumed one at a time in
// lexicographic order and rows in file order, so a run is reproducible
// byte-for-byte on unchanged inputs. Row-level problems (parse errors,
// normalization rejects) are counted and never abort the run; I/O failures
// on any artifact are fatal and propagate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"bigclean/internal/config"
	"bigclean/internal/datasource/file"
	"bigclean/internal/metrics"
	"bigclean/internal/normalize"
	csvparser "bigclean/internal/parser/csv"
	"bigclean/internal/records"
	"bigclean/internal/report"
	"bigclean/internal/storage"
)

// ErrNoInputFiles is returned when the input glob matches nothing. It is
// fatal and raised before any store mutation.
var ErrNoInputFiles = errors.New("no input files matched pattern")

// ExportFilename is the flat CSV export written next to the store.
const ExportFilename = "curated_events.csv"

// counters is the run accumulator. It is owned exclusively by Run and
// threaded through the row callbacks; nothing package-level mutates.
type counters struct {
	raw     int64
	invalid int64
}

// Run executes one cleaning run described by cfg and returns the quality
// report that was persisted to cfg.ReportPath.
func Run(ctx context.Context, cfg config.Run) (report.Quality, error) {
	cfg = cfg.WithDefaults()
	if cfg.Storage.Kind == "sqlite" && cfg.Storage.DSN == "" {
		cfg.Storage.DSN = filepath.Join(cfg.CuratedDir, "curated.db")
	}

	runID := uuid.NewString()[:8]
	log.Printf("run %s: glob=%s storage=%s batch=%d", runID, cfg.InputGlob, cfg.Storage.Kind, cfg.BatchSize)

	files, err := step(runID, "list", func() ([]string, error) {
		return file.Glob(cfg.InputGlob)
	})
	if err != nil {
		return report.Quality{}, err
	}
	if len(files) == 0 {
		return report.Quality{}, fmt.Errorf("%w: %s", ErrNoInputFiles, cfg.InputGlob)
	}

	if err := os.MkdirAll(cfg.CuratedDir, 0o755); err != nil {
		return report.Quality{}, fmt.Errorf("create curated dir: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return report.Quality{}, err
	}
	defer store.Close()

	if _, err := step(runID, "recreate", func() (struct{}, error) {
		return struct{}{}, store.Recreate(ctx)
	}); err != nil {
		return report.Quality{}, err
	}

	loader, err := storage.NewLoader(store, cfg.BatchSize)
	if err != nil {
		return report.Quality{}, err
	}

	var c counters
	if _, err := step(runID, "ingest", func() (struct{}, error) {
		return struct{}{}, ingest(ctx, files, loader, &c)
	}); err != nil {
		return report.Quality{}, err
	}

	exportPath := filepath.Join(cfg.CuratedDir, ExportFilename)
	if _, err := step(runID, "export", func() (struct{}, error) {
		sum, err := exportStore(ctx, store, exportPath)
		if err == nil {
			log.Printf("run %s: export path=%s xxh3=%s", runID, exportPath, sum)
		}
		return struct{}{}, err
	}); err != nil {
		return report.Quality{}, err
	}

	segments, err := step(runID, "aggregate", func() ([]report.Segment, error) {
		return report.TopSegments(ctx, store)
	})
	if err != nil {
		return report.Quality{}, err
	}

	curated := loader.Inserted()
	removed := c.raw - curated
	q := report.Quality{
		RawRows:      c.raw,
		CuratedRows:  curated,
		InvalidRows:  c.invalid,
		RowsRemoved:  removed,
		RemovalRatio: report.RemovalRatio(removed, c.raw),
		Artifacts: report.Artifacts{
			StorePath:  sanitizeDSN(cfg.Storage.DSN),
			ExportPath: exportPath,
		},
		TopSegments: segments,
	}

	if _, err := step(runID, "report", func() (struct{}, error) {
		return struct{}{}, q.Write(cfg.ReportPath)
	}); err != nil {
		return report.Quality{}, err
	}

	metrics.RecordRows(runID, "raw", c.raw)
	metrics.RecordRows(runID, "invalid", c.invalid)
	metrics.RecordRows(runID, "inserted", curated)
	metrics.RecordRows(runID, "suppressed", loader.Suppressed())
	metrics.RecordBatches(runID, loader.Batches())
	log.Printf(
		"run %s: summary raw=%d curated=%d invalid=%d removed=%d ratio=%.4f batches=%d",
		runID, c.raw, curated, c.invalid, removed, q.RemovalRatio, loader.Batches(),
	)

	return q, nil
}

// ingest streams every file through normalization into the loader, then
// forces the final flush. Rejected and unparseable rows are counted in c
// and never abort the run.
func ingest(ctx context.Context, files []string, loader *storage.Loader, c *counters) error {
	for _, path := range files {
		src, err := file.NewLocal(path).Open(ctx)
		if err != nil {
			return err
		}

		err = csvparser.ReadRows(ctx, src,
			func(raw records.Raw) error {
				c.raw++
				ev, err := normalize.Record(raw)
				if err != nil {
					var rej *normalize.RejectError
					if errors.As(err, &rej) {
						c.invalid++
						return nil
					}
					return err
				}
				return loader.Add(ctx, ev)
			},
			func(line int, err error) {
				// A line the CSV reader could not parse is still a raw row;
				// it is recovered locally and counted as invalid.
				c.raw++
				c.invalid++
				log.Printf("row %d in %s: %v", line, path, err)
			},
		)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
	}
	return loader.Flush(ctx)
}

// sanitizeDSN strips credentials from a connection string before it is
// persisted in the report. URL-style DSNs lose their userinfo, key=value
// DSNs lose the password pair; plain file paths pass through unchanged.
func sanitizeDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		u.User = nil
		return u.String()
	}
	if strings.Contains(dsn, "=") && strings.Contains(dsn, " ") {
		fields := strings.Fields(dsn)
		kept := fields[:0]
		for _, f := range fields {
			if strings.HasPrefix(f, "password=") {
				continue
			}
			kept = append(kept, f)
		}
		return strings.Join(kept, " ")
	}
	return dsn
}

func openStore(ctx context.Context, cfg config.Run) (storage.Store, error) {
	store, err := storage.New(ctx, storage.Config{
		Kind:  cfg.Storage.Kind,
		DSN:   cfg.Storage.DSN,
		Table: cfg.Storage.Table,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

// step runs fn as a named stage, recording its duration and outcome.
func step[T any](runID, name string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	metrics.RecordStep(runID, name, err, time.Since(start))
	return v, err
}
