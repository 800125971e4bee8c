package storage

import (
	"context"

	"subgrid/pkg/model"
)

// Entity names the record a condition or order applies to: the primary
// subscription record, the joined product, or the full-text search projection.
type Entity string

const (
	EntitySubscription Entity = "subscription"
	EntityProduct      Entity = "product"
	EntitySearch       Entity = "search"
)

// CompareOp defines the supported predicate operators.
type CompareOp string

const (
	OpEq       CompareOp = "=="       // Equal
	OpNe       CompareOp = "!="       // Not equal
	OpGt       CompareOp = ">"        // Greater than
	OpGte      CompareOp = ">="       // Greater than or equal
	OpLt       CompareOp = "<"        // Less than
	OpLte      CompareOp = "<="       // Less than or equal
	OpIn       CompareOp = "in"       // Value in set, case-insensitive
	OpContains CompareOp = "contains" // Case-insensitive substring match
	OpMatch    CompareOp = "match"    // Full-text match against the search projection
)

// Condition is one boolean predicate over the record schema. All conditions
// of a plan are combined with AND; there is no OR or grouping.
type Condition struct {
	Entity Entity    `json:"entity"`
	Field  string    `json:"field"`
	Op     CompareOp `json:"op"`
	Value  any       `json:"value"`
}

// Conditions is a conjunction of Condition.
type Conditions []Condition

// Order is one sort criterion. Multiple orders apply in encounter order,
// the first being the primary key.
type Order struct {
	Entity     Entity `json:"entity"`
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// RangeSpec is a half-open [Start, End) slice of the ordered result set.
// Invariant: Start < End, enforced at parse time.
type RangeSpec struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Plan is a fully compiled query: filters, ordering and an optional slice.
type Plan struct {
	Conditions Conditions `json:"conditions"`
	Orders     []Order    `json:"orders"`
	Range      *RangeSpec `json:"range,omitempty"`
}

// SubscriptionStore is the record-set collaborator. Implementations must
// support comparison/equality/substring/full-text predicates, ordering by
// named fields including joined-entity fields, and count plus slicing.
type SubscriptionStore interface {
	// Get retrieves a single subscription by its ID.
	Get(ctx context.Context, id string) (*model.Subscription, error)

	// Upsert inserts or replaces a subscription record.
	Upsert(ctx context.Context, sub *model.Subscription) error

	// Select executes a compiled plan and returns the materialized page.
	Select(ctx context.Context, plan Plan) ([]model.Subscription, error)

	// Count returns the number of records matching the conditions,
	// before any slicing.
	Count(ctx context.Context, conds Conditions) (int, error)

	// Close closes the connection to the backend.
	Close(ctx context.Context) error
}
