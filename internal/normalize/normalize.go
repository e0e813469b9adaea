// Package normalize validates and transforms raw input rows into typed,
// persistable events.
//
// Record is a pure function: it either returns a fully populated
// records.Event or a *RejectError carrying the rejection reason. It never
// returns a partially normalized record, never mutates its input, and has
// no side effects, so callers are free to count rejections however they
// like without the normalizer knowing about counters.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"bigclean/internal/records"
)

// Reason classifies why a row was rejected. Rejections are row-level and
// recoverable: callers count them and move on.
type Reason string

const (
	// MissingKeyField means event_id or customer_id was empty after trimming.
	MissingKeyField Reason = "missing_key_field"
	// InvalidNumeric means a numeric field could not be parsed.
	InvalidNumeric Reason = "invalid_numeric"
	// InvalidTimestamp means event_ts was not a well-formed ISO-8601 timestamp.
	InvalidTimestamp Reason = "invalid_timestamp"
)

// RejectError reports a rejected row. It is the only error type Record
// returns.
type RejectError struct {
	Reason Reason
	Field  string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("reject %s: %s", e.Field, e.Reason)
}

func reject(reason Reason, field string) error {
	return &RejectError{Reason: reason, Field: field}
}

// isoLayouts are the accepted ISO-8601 timestamp shapes, tried in order.
// Generated data uses the second-precision local form; the rest cover
// fractional seconds and explicit offsets.
var isoLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
}

func validISO(s string) bool {
	for _, layout := range isoLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// parseNumeric accepts integers expressed as floating text ("7", "7.0").
func parseNumeric(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Record applies the normalization rules to one raw row.
//
// The rules, in order: key fields must be present; customer_id must parse
// numerically; event_ts must be ISO-8601; country is uppercased with empty
// replaced by "UNKNOWN"; channel/product/email are lowercased, with the
// " at " corruption in email restored to "@"; amount_usd must parse, with
// non-positive values clamped to 0.01; quantity must parse, clamped to
// [1,30]. Clamping (not rejecting) borderline amounts and quantities keeps
// the event in the curated set while guaranteeing positive revenue.
func Record(raw records.Raw) (records.Event, error) {
	eventID := strings.TrimSpace(raw.EventID)
	customerID := strings.TrimSpace(raw.CustomerID)
	if eventID == "" {
		return records.Event{}, reject(MissingKeyField, "event_id")
	}
	if customerID == "" {
		return records.Event{}, reject(MissingKeyField, "customer_id")
	}

	customer, err := parseNumeric(customerID)
	if err != nil {
		return records.Event{}, reject(InvalidNumeric, "customer_id")
	}

	eventTS := strings.TrimSpace(raw.EventTS)
	if !validISO(eventTS) {
		return records.Event{}, reject(InvalidTimestamp, "event_ts")
	}

	country := strings.ToUpper(strings.TrimSpace(raw.Country))
	if country == "" {
		country = "UNKNOWN"
	}

	channel := strings.ToLower(strings.TrimSpace(raw.Channel))
	product := strings.ToLower(strings.TrimSpace(raw.Product))
	email := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw.Email)), " at ", "@")

	amount, err := parseNumeric(raw.AmountUSD)
	if err != nil {
		return records.Event{}, reject(InvalidNumeric, "amount_usd")
	}
	if amount <= 0 {
		amount = 0.01
	}

	qty, err := parseNumeric(raw.Quantity)
	if err != nil {
		return records.Event{}, reject(InvalidNumeric, "quantity")
	}
	quantity := int(qty)
	if quantity < 1 {
		quantity = 1
	}
	if quantity > 30 {
		quantity = 30
	}

	return records.Event{
		EventID:    eventID,
		CustomerID: int64(customer),
		EventTS:    eventTS,
		Country:    country,
		Channel:    channel,
		Product:    product,
		AmountUSD:  round2(amount),
		Quantity:   quantity,
		Email:      email,
	}, nil
}
