// Flat CSV export of the curated store. The export is a portability
// artifact: the same 9 columns as the table, header row included, amounts
// fixed to two decimals so reruns on unchanged inputs are byte-identical.
package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/zeebo/xxh3"

	"bigclean/internal/records"
	"bigclean/internal/storage"
)

// exportStore scans the whole store in insertion order into a CSV file at
// path and returns the xxh3 checksum of the written bytes.
func exportStore(ctx context.Context, store storage.Store, path string) (sum string, err error) {
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close export: %w", cerr)
		}
	}()

	h := xxh3.New()
	w := csv.NewWriter(io.MultiWriter(f, h))

	if err := w.Write(records.Columns); err != nil {
		return "", fmt.Errorf("write export header: %w", err)
	}

	err = store.Scan(ctx, func(ev records.Event) error {
		return w.Write([]string{
			ev.EventID,
			strconv.FormatInt(ev.CustomerID, 10),
			ev.EventTS,
			ev.Country,
			ev.Channel,
			ev.Product,
			strconv.FormatFloat(ev.AmountUSD, 'f', 2, 64),
			strconv.Itoa(ev.Quantity),
			ev.Email,
		})
	})
	if err != nil {
		return "", fmt.Errorf("export scan: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush export: %w", err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
