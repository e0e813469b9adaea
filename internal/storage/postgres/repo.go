// Package postgres implements the curated store on Postgres using pgx v5.
//
// Insert-or-ignore maps onto INSERT ... ON CONFLICT (event_id) DO NOTHING,
// sent as one pgx batch per flush so a 50k-row buffer costs a single round
// trip. A bigserial seq column preserves insertion order for Scan, since
// Postgres has no rowid equivalent with that guarantee.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bigclean/internal/records"
	"bigclean/internal/storage"
)

const defaultTable = "curated_events"

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		return NewRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
	})
}

// Config holds Postgres repository configuration.
type Config struct {
	// DSN is the pgxpool connection string, e.g. "postgresql://user@host/db".
	DSN string
	// Table is the curated table name; defaults to "curated_events".
	Table string
}

// Repository is the Postgres-backed storage.Store.
type Repository struct {
	pool  *pgxpool.Pool
	table string
}

// NewRepository opens a pgx pool and pings it to fail fast on an invalid DSN.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repository{pool: pool, table: table}, nil
}

// Recreate drops and rebuilds the curated table.
func (r *Repository) Recreate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", r.table)); err != nil {
		return fmt.Errorf("postgres: drop table: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE %s (
	seq         BIGSERIAL,
	event_id    TEXT PRIMARY KEY,
	customer_id BIGINT NOT NULL,
	event_ts    TEXT NOT NULL,
	country     TEXT NOT NULL,
	channel     TEXT NOT NULL,
	product     TEXT NOT NULL,
	amount_usd  DOUBLE PRECISION NOT NULL,
	quantity    INTEGER NOT NULL,
	email       TEXT NOT NULL
)`, r.table)
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres: create table: %w", err)
	}
	return nil
}

// InsertIgnore sends one INSERT ... ON CONFLICT DO NOTHING per event in a
// single pgx batch and sums the command tags, so duplicates count zero.
func (r *Repository) InsertIgnore(ctx context.Context, events []records.Event) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(records.Columns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (event_id) DO NOTHING",
		r.table,
		strings.Join(records.Columns, ", "),
		strings.Join(placeholders, ", "),
	)

	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(stmtSQL, ev.Values()...)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	var inserted int64
	for range events {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("postgres: insert: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// Scan visits every stored event in insertion (seq) order.
func (r *Repository) Scan(ctx context.Context, fn func(records.Event) error) error {
	query := fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY seq",
		strings.Join(records.Columns, ", "),
		r.table,
	)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("postgres: scan: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ev records.Event
		if err := rows.Scan(
			&ev.EventID, &ev.CustomerID, &ev.EventTS,
			&ev.Country, &ev.Channel, &ev.Product,
			&ev.AmountUSD, &ev.Quantity, &ev.Email,
		); err != nil {
			return fmt.Errorf("postgres: scan row: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres: scan: %w", err)
	}
	return nil
}

// AggregateBySegment mirrors the SQLite backend's query; the numeric cast is
// required because Postgres ROUND(double, int) is not defined.
func (r *Repository) AggregateBySegment(ctx context.Context) ([]storage.Segment, error) {
	query := fmt.Sprintf(`SELECT
	country,
	channel,
	COUNT(*) AS events,
	ROUND(SUM(amount_usd)::numeric, 2)::float8 AS revenue_usd,
	ROUND(AVG(amount_usd)::numeric, 2)::float8 AS avg_ticket
FROM %s
GROUP BY country, channel
ORDER BY revenue_usd DESC, country ASC, channel ASC
LIMIT %d`, r.table, storage.SegmentLimit)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: aggregate: %w", err)
	}
	defer rows.Close()

	var out []storage.Segment
	for rows.Next() {
		var s storage.Segment
		if err := rows.Scan(&s.Country, &s.Channel, &s.Events, &s.RevenueUSD, &s.AvgTicket); err != nil {
			return nil, fmt.Errorf("postgres: aggregate row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: aggregate: %w", err)
	}
	return out, nil
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}
