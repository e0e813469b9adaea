// Package generate produces the synthetic dirty partition files the
// cleaning pipeline consumes.
//
// The generator intentionally corrupts its output with the noise modes the
// cleaner must tolerate: roughly 2% exact-duplicate rows, 9% emails with
// "@" replaced by " at ", 6% blank countries, and 2.5% amount outliers on
// top of a lognormal amount distribution.
//
// Output is deterministic for a given seed. Each partition derives its own
// RNG seed by hashing (seed, partition index), so partitions can be written
// in parallel without the schedule affecting their contents.
package generate

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"bigclean/internal/records"
)

var (
	countries = []string{"US", "MX", "ES", "CO", "AR", "CL", "PE", "EC"}
	channels  = []string{"web", "app", "phone", "store"}
	products  = []string{"cloud_etl", "lakehouse", "streaming", "batch_orchestrator", "gpu_pipeline", "fraud_detector"}
)

// Corruption rates and amount distribution parameters.
const (
	emailCorruptRate = 0.09
	blankCountryRate = 0.06
	outlierRate      = 0.025
	duplicateRate    = 0.02

	amountLogMean  = 3.8
	amountLogSigma = 0.6
)

// Params configures one generation run.
type Params struct {
	OutputDir  string
	TotalRows  int
	Partitions int
	Seed       int64
}

// Dataset writes TotalRows rows across up to Partitions CSV partition files
// named raw_events_NNN.csv and returns the written paths in partition
// order. TotalRows and Partitions must be positive.
//
// Partitions are written concurrently; determinism is preserved because
// every partition seeds its own RNG from (Seed, index).
func Dataset(ctx context.Context, p Params) ([]string, error) {
	if p.TotalRows <= 0 {
		return nil, fmt.Errorf("generate: total rows must be > 0, got %d", p.TotalRows)
	}
	if p.Partitions <= 0 {
		return nil, fmt.Errorf("generate: partitions must be > 0, got %d", p.Partitions)
	}
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("generate: create output dir: %w", err)
	}

	perPartition := int(math.Ceil(float64(p.TotalRows) / float64(p.Partitions)))
	paths := make([]string, p.Partitions)

	g, gctx := errgroup.WithContext(ctx)
	for idx := 0; idx < p.Partitions; idx++ {
		start := idx * perPartition
		end := min(p.TotalRows, (idx+1)*perPartition)
		if start >= end {
			break
		}

		path := filepath.Join(p.OutputDir, fmt.Sprintf("raw_events_%03d.csv", idx))
		paths[idx] = path
		g.Go(func() error {
			return writePartition(gctx, path, idx, end-start, partitionSeed(p.Seed, idx))
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, p.Partitions)
	for _, path := range paths {
		if path != "" {
			out = append(out, path)
		}
	}
	return out, nil
}

// partitionSeed derives an independent RNG seed for one partition.
func partitionSeed(seed int64, idx int) int64 {
	return int64(xxh3.HashString(fmt.Sprintf("%d/%d", seed, idx)))
}

func writePartition(ctx context.Context, path string, idx, rows int, seed int64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("generate: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("generate: close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(records.Columns); err != nil {
		return fmt.Errorf("generate: write header: %w", err)
	}

	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < rows; i++ {
		if i%1000 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		row := buildRow(rng, idx, i)
		if err := w.Write(row); err != nil {
			return fmt.Errorf("generate: write row: %w", err)
		}
		if rng.Float64() < duplicateRate {
			if err := w.Write(row); err != nil {
				return fmt.Errorf("generate: write row: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("generate: flush %s: %w", path, err)
	}
	return nil
}

// buildRow assembles one dirty row, aligned to records.Columns order.
func buildRow(rng *rand.Rand, partition, row int) []string {
	customerID := 100_000 + rng.Intn(900_000)

	email := fmt.Sprintf("client_%d@bigcorp.ai", customerID)
	if rng.Float64() < emailCorruptRate {
		email = fmt.Sprintf("client_%d at bigcorp.ai", customerID)
	}

	amount := round2(math.Exp(amountLogMean + amountLogSigma*rng.NormFloat64()))
	if rng.Float64() < outlierRate {
		amount = round2(amount * (12 + rng.Float64()*33))
	}

	country := countries[rng.Intn(len(countries))]
	if rng.Float64() < blankCountryRate {
		country = ""
	}

	return []string{
		fmt.Sprintf("evt_%d_%d", partition, row),
		fmt.Sprintf("%d", customerID),
		randomTimestamp(rng),
		country,
		channels[rng.Intn(len(channels))],
		products[rng.Intn(len(products))],
		fmt.Sprintf("%g", amount),
		fmt.Sprintf("%d", 1+rng.Intn(7)),
		email,
	}
}

func randomTimestamp(rng *rand.Rand) string {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	offset := time.Duration(rng.Intn(365*24*3600)) * time.Second
	return base.Add(offset).Format("2006-01-02T15:04:05")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
