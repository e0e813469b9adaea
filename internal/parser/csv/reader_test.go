package csv

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"bigclean/internal/records"
)

func collect(t *testing.T, input string) []records.Raw {
	t.Helper()
	var got []records.Raw
	err := ReadRows(context.Background(), io.NopCloser(strings.NewReader(input)),
		func(r records.Raw) error {
			got = append(got, r)
			return nil
		}, nil)
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	return got
}

func TestReadRows_CanonicalHeader(t *testing.T) {
	t.Parallel()

	input := "event_id,customer_id,event_ts,country,channel,product,amount_usd,quantity,email\n" +
		"evt_1_1,100001,2025-03-04T05:06:07,US,web,lakehouse,49.90,2,a@b.com\n"

	got := collect(t, input)
	want := []records.Raw{{
		EventID:    "evt_1_1",
		CustomerID: "100001",
		EventTS:    "2025-03-04T05:06:07",
		Country:    "US",
		Channel:    "web",
		Product:    "lakehouse",
		AmountUSD:  "49.90",
		Quantity:   "2",
		Email:      "a@b.com",
	}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %#v, want %#v", got, want)
	}
}

// TestReadRows_ShuffledHeader verifies columns are mapped by name, not
// position, and that header names are case- and whitespace-insensitive.
func TestReadRows_ShuffledHeader(t *testing.T) {
	t.Parallel()

	input := "Email, COUNTRY ,event_id\n" +
		"a@b.com,US,evt_1_1\n"

	got := collect(t, input)
	if len(got) != 1 {
		t.Fatalf("rows = %d, want 1", len(got))
	}
	r := got[0]
	if r.EventID != "evt_1_1" || r.Country != "US" || r.Email != "a@b.com" {
		t.Fatalf("mapped row = %#v", r)
	}
	// Columns absent from the header come back empty.
	if r.AmountUSD != "" || r.Quantity != "" {
		t.Fatalf("missing columns not empty: %#v", r)
	}
}

func TestReadRows_BOMHeader(t *testing.T) {
	t.Parallel()

	input := "\uFEFFevent_id,email\nevt_1_1,a@b.com\n"

	got := collect(t, input)
	if len(got) != 1 || got[0].EventID != "evt_1_1" {
		t.Fatalf("rows = %#v, want BOM-stripped event_id mapping", got)
	}
}

// TestReadRows_ShortRow verifies a row with fewer cells than the header
// still parses, with the missing trailing fields empty.
func TestReadRows_ShortRow(t *testing.T) {
	t.Parallel()

	input := "event_id,customer_id,email\nevt_1_1,100001\n"

	got := collect(t, input)
	if len(got) != 1 {
		t.Fatalf("rows = %d, want 1", len(got))
	}
	if got[0].CustomerID != "100001" || got[0].Email != "" {
		t.Fatalf("short row = %#v", got[0])
	}
}

func TestReadRows_TrimsCells(t *testing.T) {
	t.Parallel()

	input := "event_id,country\n  evt_1_1  ,  US \n"

	got := collect(t, input)
	if got[0].EventID != "evt_1_1" || got[0].Country != "US" {
		t.Fatalf("cells not trimmed: %#v", got[0])
	}
}

func TestReadRows_EmptyFile(t *testing.T) {
	t.Parallel()

	err := ReadRows(context.Background(), io.NopCloser(strings.NewReader("")),
		func(records.Raw) error { return nil }, nil)
	if err == nil {
		t.Fatal("empty file: want error")
	}
}

func TestReadRows_FnErrorIsFatal(t *testing.T) {
	t.Parallel()

	input := "event_id\ne1\ne2\n"
	boom := errors.New("boom")
	calls := 0
	err := ReadRows(context.Background(), io.NopCloser(strings.NewReader(input)),
		func(records.Raw) error {
			calls++
			return boom
		}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Fatalf("fn calls = %d, want 1 (stop on first error)", calls)
	}
}

type failReader struct{ header bool }

func (f *failReader) Read(p []byte) (int, error) {
	if !f.header {
		f.header = true
		return copy(p, "event_id\n"), nil
	}
	return 0, errors.New("disk gone")
}

func (f *failReader) Close() error { return nil }

// TestReadRows_IOErrorIsFatal verifies an underlying read failure aborts
// the file instead of being soft-dropped like a malformed line.
func TestReadRows_IOErrorIsFatal(t *testing.T) {
	t.Parallel()

	err := ReadRows(context.Background(), &failReader{},
		func(records.Raw) error { return nil }, func(int, error) {})
	if err == nil || !strings.Contains(err.Error(), "disk gone") {
		t.Fatalf("err = %v, want underlying read failure", err)
	}
}

func TestReadRows_ContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ReadRows(ctx, io.NopCloser(strings.NewReader("event_id\ne1\n")),
		func(records.Raw) error { return nil }, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
