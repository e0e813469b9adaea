package normalize

import (
	"errors"
	"reflect"
	"testing"

	"bigclean/internal/records"
)

// validRaw returns a raw row that passes every rule; tests mutate single
// fields from here.
func validRaw() records.Raw {
	return records.Raw{
		EventID:    "evt_0_1",
		CustomerID: "123456",
		EventTS:    "2025-03-01T00:00:00",
		Country:    "us",
		Channel:    "Web",
		Product:    "Cloud_ETL",
		AmountUSD:  "49.90",
		Quantity:   "3",
		Email:      "Client_123456@bigcorp.ai",
	}
}

func TestRecord_Valid(t *testing.T) {
	t.Parallel()

	got, err := Record(validRaw())
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	want := records.Event{
		EventID:    "evt_0_1",
		CustomerID: 123456,
		EventTS:    "2025-03-01T00:00:00",
		Country:    "US",
		Channel:    "web",
		Product:    "cloud_etl",
		AmountUSD:  49.90,
		Quantity:   3,
		Email:      "client_123456@bigcorp.ai",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Record = %#v, want %#v", got, want)
	}
}

// TestRecord_ClampsAndSubstitutions covers the documented normalization
// example: blank country, negative amount, zero quantity, and a corrupted
// email all normalize rather than reject.
func TestRecord_ClampsAndSubstitutions(t *testing.T) {
	t.Parallel()

	raw := records.Raw{
		EventID:    "e1",
		CustomerID: "7",
		EventTS:    "2025-03-01T00:00:00",
		Country:    "",
		Channel:    "Web",
		Product:    "gadget",
		AmountUSD:  "-5",
		Quantity:   "0",
		Email:      "a at b.com",
	}
	got, err := Record(raw)
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	want := records.Event{
		EventID:    "e1",
		CustomerID: 7,
		EventTS:    "2025-03-01T00:00:00",
		Country:    "UNKNOWN",
		Channel:    "web",
		Product:    "gadget",
		AmountUSD:  0.01,
		Quantity:   1,
		Email:      "a@b.com",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Record = %#v, want %#v", got, want)
	}
}

func TestRecord_Rejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*records.Raw)
		reason Reason
		field  string
	}{
		{"empty event_id", func(r *records.Raw) { r.EventID = "   " }, MissingKeyField, "event_id"},
		{"empty customer_id", func(r *records.Raw) { r.CustomerID = "" }, MissingKeyField, "customer_id"},
		{"non-numeric customer_id", func(r *records.Raw) { r.CustomerID = "abc" }, InvalidNumeric, "customer_id"},
		{"bad timestamp", func(r *records.Raw) { r.EventTS = "not-a-date" }, InvalidTimestamp, "event_ts"},
		{"empty timestamp", func(r *records.Raw) { r.EventTS = "" }, InvalidTimestamp, "event_ts"},
		{"non-numeric amount", func(r *records.Raw) { r.AmountUSD = "12,50" }, InvalidNumeric, "amount_usd"},
		{"empty amount", func(r *records.Raw) { r.AmountUSD = "" }, InvalidNumeric, "amount_usd"},
		{"non-numeric quantity", func(r *records.Raw) { r.Quantity = "many" }, InvalidNumeric, "quantity"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			raw := validRaw()
			tc.mutate(&raw)

			_, err := Record(raw)
			var rej *RejectError
			if !errors.As(err, &rej) {
				t.Fatalf("Record err = %v, want *RejectError", err)
			}
			if rej.Reason != tc.reason || rej.Field != tc.field {
				t.Fatalf("reject = {%s %s}, want {%s %s}", rej.Reason, rej.Field, tc.reason, tc.field)
			}
		})
	}
}

// TestRecord_NumericCoercion verifies integers expressed as floating text
// are accepted and truncated.
func TestRecord_NumericCoercion(t *testing.T) {
	t.Parallel()

	raw := validRaw()
	raw.CustomerID = "123456.0"
	raw.Quantity = "2.9"

	got, err := Record(raw)
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if got.CustomerID != 123456 {
		t.Fatalf("CustomerID = %d, want 123456", got.CustomerID)
	}
	if got.Quantity != 2 {
		t.Fatalf("Quantity = %d, want 2", got.Quantity)
	}
}

func TestRecord_QuantityClampUpper(t *testing.T) {
	t.Parallel()

	raw := validRaw()
	raw.Quantity = "99"

	got, err := Record(raw)
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if got.Quantity != 30 {
		t.Fatalf("Quantity = %d, want 30", got.Quantity)
	}
}

func TestRecord_AmountRounding(t *testing.T) {
	t.Parallel()

	raw := validRaw()
	raw.AmountUSD = "10.006"

	got, err := Record(raw)
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if got.AmountUSD != 10.01 {
		t.Fatalf("AmountUSD = %v, want 10.01", got.AmountUSD)
	}
}

// TestRecord_CountryTrimUpperOnly verifies the country transform is exactly
// trim plus uppercase: accented characters pass through intact.
func TestRecord_CountryTrimUpperOnly(t *testing.T) {
	t.Parallel()

	raw := validRaw()
	raw.Country = " España "

	got, err := Record(raw)
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if got.Country != "ESPAÑA" {
		t.Fatalf("Country = %q, want \"ESPAÑA\"", got.Country)
	}
}

func TestRecord_TimestampLayouts(t *testing.T) {
	t.Parallel()

	for _, ts := range []string{
		"2025-06-15T10:30:00",
		"2025-06-15T10:30:00.123456",
		"2025-06-15T10:30:00Z",
		"2025-06-15T10:30:00+02:00",
		"2025-06-15",
	} {
		raw := validRaw()
		raw.EventTS = ts
		if _, err := Record(raw); err != nil {
			t.Errorf("Record(%q) rejected: %v", ts, err)
		}
	}
}
