// Package csv turns raw partition files into records.Raw rows.
//
// The reader is tolerant by design: variable field counts are allowed,
// unescaped quotes are accepted, cells are trimmed, and a malformed line is
// reported through the onErr callback and skipped rather than aborting the
// file. Columns are mapped by header name, so partitions whose columns
// arrive in a different order still parse correctly; a column missing from
// the header simply yields empty strings.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"bigclean/internal/records"
)

// ReadRows streams delimited rows from src and invokes fn for each
// assembled raw record. The first line is the header; its names are
// trimmed, BOM-stripped, and lowercased before mapping onto the canonical
// columns.
//
// onErr receives recoverable row-level parse errors (soft-drop). A non-nil
// error from fn is fatal and propagates immediately; src is closed on all
// exit paths.
func ReadRows(
	ctx context.Context,
	src io.ReadCloser,
	fn func(records.Raw) error,
	onErr func(line int, err error),
) error {
	defer src.Close()

	cr := csv.NewReader(src)
	cr.ReuseRecord = true
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1 // tolerant by default

	line := 0
	read := func() ([]string, error) { line++; return cr.Read() }

	hdr, err := read()
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("read header: empty file")
		}
		return fmt.Errorf("read header: %w", err)
	}

	srcToIdx := make(map[string]int, len(hdr))
	for i, h := range hdr {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF") // strip BOM
		}
		srcToIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	// Dest→source mapping over the canonical column order; -1 means the
	// source has no such column and the field stays "".
	colIx := make([]int, len(records.Columns))
	for t, name := range records.Columns {
		colIx[t] = -1
		if si, ok := srcToIdx[name]; ok {
			colIx[t] = si
		}
	}

	for {
		// Cooperative cancel between rows.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := read()
		if err == io.EOF {
			return nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			// Malformed line: soft-drop and keep reading.
			if onErr != nil {
				onErr(line, fmt.Errorf("csv read: %w", err))
			}
			continue
		}
		if err != nil {
			// Underlying I/O failure, not a row problem.
			return fmt.Errorf("csv read: %w", err)
		}

		cell := func(t int) string {
			si := colIx[t]
			if si < 0 || si >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[si])
		}

		raw := records.Raw{
			EventID:    cell(0),
			CustomerID: cell(1),
			EventTS:    cell(2),
			Country:    cell(3),
			Channel:    cell(4),
			Product:    cell(5),
			AmountUSD:  cell(6),
			Quantity:   cell(7),
			Email:      cell(8),
		}
		if err := fn(raw); err != nil {
			return err
		}
	}
}
