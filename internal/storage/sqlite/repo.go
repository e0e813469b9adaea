// Package sqlite implements the curated store on SQLite via database/sql.
//
// It is the default backend: the whole store is a single file under the
// curated output directory, recreated from scratch at the start of every
// run. Batched inserts run inside one transaction with a prepared
// INSERT OR IGNORE statement; SQLite has no dedicated bulk-load API, but
// transactions keep performance acceptable for the volumes involved.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure-Go driver, registers as "sqlite"

	"bigclean/internal/records"
	"bigclean/internal/storage"
)

const defaultTable = "curated_events"

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		return NewRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
	})
}

// Config holds SQLite repository configuration. DSN is passed directly to
// database/sql, e.g. "data/curated/curated.db" or
// "file:curated.db?cache=shared".
type Config struct {
	DSN   string
	Table string
}

// Repository is the SQLite-backed storage.Store.
type Repository struct {
	db    *sql.DB
	table string
}

// NewRepository opens the SQLite database and pings it to fail fast on an
// invalid DSN.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return &Repository{db: db, table: table}, nil
}

// Recreate drops and rebuilds the curated table. event_id is the primary
// key; everything else is NOT NULL because the normalizer guarantees every
// field is populated.
func (r *Repository) Recreate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", r.table)); err != nil {
		return fmt.Errorf("sqlite: drop table: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE %s (
	event_id    TEXT PRIMARY KEY,
	customer_id INTEGER NOT NULL,
	event_ts    TEXT NOT NULL,
	country     TEXT NOT NULL,
	channel     TEXT NOT NULL,
	product     TEXT NOT NULL,
	amount_usd  REAL NOT NULL,
	quantity    INTEGER NOT NULL,
	email       TEXT NOT NULL
)`, r.table)
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("sqlite: create table: %w", err)
	}
	return nil
}

// InsertIgnore bulk-inserts events inside one transaction using a prepared
// INSERT OR IGNORE. Events whose event_id already exists are silently
// skipped; the returned count covers only rows actually inserted (summed
// RowsAffected, which is 0 for an ignored duplicate).
func (r *Repository) InsertIgnore(ctx context.Context, events []records.Event) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(records.Columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT OR IGNORE INTO %s (%s) VALUES (%s)",
		r.table,
		strings.Join(records.Columns, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, ev := range events {
		res, err := stmt.ExecContext(ctx, ev.Values()...)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: rows affected: %w", err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// Scan visits every stored event in insertion (rowid) order.
func (r *Repository) Scan(ctx context.Context, fn func(records.Event) error) error {
	query := fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY rowid",
		strings.Join(records.Columns, ", "),
		r.table,
	)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("sqlite: scan: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ev records.Event
		if err := rows.Scan(
			&ev.EventID, &ev.CustomerID, &ev.EventTS,
			&ev.Country, &ev.Channel, &ev.Product,
			&ev.AmountUSD, &ev.Quantity, &ev.Email,
		); err != nil {
			return fmt.Errorf("sqlite: scan row: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: scan: %w", err)
	}
	return nil
}

// AggregateBySegment groups events by (country, channel). Revenue and
// average ticket are rounded to two decimals in SQL so every backend
// reports the same figures. Ties on revenue break by country then channel
// ascending, keeping the top-10 ranking deterministic.
func (r *Repository) AggregateBySegment(ctx context.Context) ([]storage.Segment, error) {
	query := fmt.Sprintf(`SELECT
	country,
	channel,
	COUNT(*) AS events,
	ROUND(SUM(amount_usd), 2) AS revenue_usd,
	ROUND(AVG(amount_usd), 2) AS avg_ticket
FROM %s
GROUP BY country, channel
ORDER BY revenue_usd DESC, country ASC, channel ASC
LIMIT %d`, r.table, storage.SegmentLimit)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: aggregate: %w", err)
	}
	defer rows.Close()

	var out []storage.Segment
	for rows.Next() {
		var s storage.Segment
		if err := rows.Scan(&s.Country, &s.Channel, &s.Events, &s.RevenueUSD, &s.AvgTicket); err != nil {
			return nil, fmt.Errorf("sqlite: aggregate row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: aggregate: %w", err)
	}
	return out, nil
}

// Close releases the underlying database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}
