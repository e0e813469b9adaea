// Package storage contains the storage-agnostic contracts of the curated
// store plus the batched loader that feeds it.
//
// The core pipeline depends only on the Store interface; concrete backends
// (SQLite, Postgres) register themselves with the factory at init time and
// are selected by kind at runtime. This keeps backend-specific SQL out of
// the pipeline entirely.
package storage

import (
	"context"
	"fmt"
	"sync"

	"bigclean/internal/records"
)

// SegmentLimit caps the grouped aggregation at the top revenue segments.
const SegmentLimit = 10

// Config selects and configures a storage backend.
type Config struct {
	// Kind selects the registered backend, e.g. "sqlite" or "postgres".
	Kind string
	// DSN is passed verbatim to the backend's driver.
	DSN string
	// Table is the curated table name. Backends default it to
	// "curated_events" when empty.
	Table string
}

// Segment is one (country, channel) aggregation row. RevenueUSD and
// AvgTicket are rounded to two decimals by the backend.
type Segment struct {
	Country    string
	Channel    string
	Events     int64
	RevenueUSD float64
	AvgTicket  float64
}

// Store is the minimal capability interface of the curated event store.
//
// Semantics every backend must honor:
//
//   - Recreate drops and rebuilds the curated table; no state survives it.
//   - InsertIgnore bulk-inserts events and silently skips any event whose
//     key already exists (no update, no error). It returns the number of
//     rows actually inserted, which is how duplicate suppression is
//     observed by callers.
//   - Scan visits every stored event in insertion order; each call starts
//     a fresh scan. A non-nil error from fn stops the scan and is returned.
//   - AggregateBySegment groups by (country, channel) and returns at most
//     SegmentLimit segments ordered by revenue descending, ties broken by
//     country then channel ascending.
type Store interface {
	Recreate(ctx context.Context) error
	InsertIgnore(ctx context.Context, events []records.Event) (int64, error)
	Scan(ctx context.Context, fn func(records.Event) error) error
	AggregateBySegment(ctx context.Context) ([]Segment, error)
	Close() error
}

// Factory constructs a Store for a backend kind. Backends register their
// factory from init().
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for a backend kind. It is
// typically called from backend packages' init() functions.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// New opens a Store of the configured kind. Callers remain backend-agnostic;
// importing bigclean/internal/storage/all makes the built-in kinds available.
func New(ctx context.Context, cfg Config) (Store, error) {
	regMu.RLock()
	fn, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no storage backend registered for kind=%q", cfg.Kind)
	}
	return fn(ctx, cfg)
}
