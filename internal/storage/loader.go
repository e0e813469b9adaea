// This file implements the batched loader sitting between the normalizer
// and the store. It buffers events in arrival order and flushes them with
// one bulk idempotent insert per batch.
//
// Batching exists purely for throughput: insert-or-ignore semantics and
// acceptance order are identical to inserting one row at a time. On every
// successful flush a concise progress line is emitted with running totals
// and instantaneous rows/sec since the previous flush.
package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"bigclean/internal/records"
)

// DefaultBatchSize is the flush threshold used when the caller does not
// configure one.
const DefaultBatchSize = 50_000

// Loader accumulates normalized events and bulk-loads them into a Store.
// It owns its buffer exclusively until flushed and is not safe for
// concurrent use; the pipeline is strictly sequential.
type Loader struct {
	store     Store
	batchSize int

	buf        []records.Event
	inserted   int64 // rows the store reported as newly inserted
	suppressed int64 // rows silently skipped as key duplicates
	batches    int64

	start     time.Time
	lastFlush time.Time
	lastTotal int64
}

// NewLoader returns a Loader flushing into store whenever the buffer reaches
// batchSize rows. batchSize must be > 0.
func NewLoader(store Store, batchSize int) (*Loader, error) {
	if store == nil {
		return nil, fmt.Errorf("loader: store must not be nil")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("loader: batchSize must be > 0, got %d", batchSize)
	}
	now := time.Now()
	return &Loader{
		store:     store,
		batchSize: batchSize,
		buf:       make([]records.Event, 0, batchSize),
		start:     now,
		lastFlush: now,
	}, nil
}

// Add buffers one event, flushing first if the buffer is full.
func (l *Loader) Add(ctx context.Context, ev records.Event) error {
	l.buf = append(l.buf, ev)
	if len(l.buf) >= l.batchSize {
		return l.Flush(ctx)
	}
	return nil
}

// Flush bulk-inserts the buffered events and clears the buffer. It is a
// no-op when the buffer is empty. The pipeline calls it once more after the
// last input row regardless of fill level.
func (l *Loader) Flush(ctx context.Context) error {
	if len(l.buf) == 0 {
		return nil
	}

	n, err := l.store.InsertIgnore(ctx, l.buf)
	l.inserted += n
	if err != nil {
		log.Printf("loader: insert failed after=%d total=%d err=%v", n, l.inserted, err)
		return err
	}
	l.suppressed += int64(len(l.buf)) - n

	// Keep capacity to avoid churn across flushes.
	l.buf = l.buf[:0]

	l.batches++
	now := time.Now()
	sinceLast := now.Sub(l.lastFlush)
	rps := float64(0)
	if sinceLast > 0 {
		rps = float64(l.inserted-l.lastTotal) / sinceLast.Seconds()
	}
	log.Printf(
		"batch #%d: rps=%.0f inserted=%d suppressed=%d total_inserted=%d elapsed=%s since_last=%s",
		l.batches,
		rps,
		n,
		l.suppressed,
		l.inserted,
		now.Sub(l.start).Truncate(time.Millisecond),
		sinceLast.Truncate(time.Millisecond),
	)
	l.lastFlush = now
	l.lastTotal = l.inserted

	return nil
}

// Inserted reports how many rows all flushes so far actually inserted.
func (l *Loader) Inserted() int64 { return l.inserted }

// Suppressed reports how many rows were silently skipped as duplicates.
func (l *Loader) Suppressed() int64 { return l.suppressed }

// Batches reports how many non-empty flushes have completed.
func (l *Loader) Batches() int64 { return l.batches }
