// Package records defines the row shapes that flow through the cleaning
// pipeline: the untyped raw input row and the fully typed curated event.
//
// Raw is deliberately a fixed-shape struct of strings rather than a
// map[string]any: the input schema is known (9 named columns) and a fixed
// shape keeps the hot path allocation-free and impossible to misspell.
// An Event is only ever produced by the normalizer; no partially populated
// Event exists anywhere in the pipeline.
package records

// Columns lists the curated_events columns in canonical storage order.
// The CSV export, the INSERT statements, and the table DDL all align to it.
var Columns = []string{
	"event_id",
	"customer_id",
	"event_ts",
	"country",
	"channel",
	"product",
	"amount_usd",
	"quantity",
	"email",
}

// Raw is one input row as read from a partition file, with surrounding
// whitespace trimmed by the reader. Any field may still be empty or
// malformed. A column missing from the source row is represented as "".
type Raw struct {
	EventID    string
	CustomerID string
	EventTS    string
	Country    string
	Channel    string
	Product    string
	AmountUSD  string
	Quantity   string
	Email      string
}

// Event is a validated, normalized record eligible for persistence.
//
// Field invariants (enforced by the normalizer, relied on downstream):
//
//   - EventID is non-empty and serves as the primary key.
//   - EventTS is a well-formed ISO-8601 timestamp string.
//   - Country is uppercase, or the literal "UNKNOWN".
//   - Channel, Product, and Email are lowercase.
//   - AmountUSD is > 0 with two-decimal precision.
//   - Quantity is in [1, 30].
type Event struct {
	EventID    string
	CustomerID int64
	EventTS    string
	Country    string
	Channel    string
	Product    string
	AmountUSD  float64
	Quantity   int
	Email      string
}

// Values returns the event's fields as a row aligned to Columns order,
// ready for a positional bulk insert.
func (e Event) Values() []any {
	return []any{
		e.EventID,
		e.CustomerID,
		e.EventTS,
		e.Country,
		e.Channel,
		e.Product,
		e.AmountUSD,
		e.Quantity,
		e.Email,
	}
}
