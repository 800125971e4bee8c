// Package query compiles flat, string-encoded filter/sort/range parameters
// as produced by table and grid UI widgets into a structured query plan, and
// executes the plan against a subscription store.
package query

import (
	"context"

	"subgrid/internal/storage"
	"subgrid/pkg/model"
)

// ListParams are the raw listing parameters as they arrive on the wire.
// Filter and Sort are flat lists consumed pairwise; Range is an optional
// two-element [start, end) slice.
type ListParams struct {
	Filter []string `schema:"filter"`
	Sort   []string `schema:"sort"`
	Range  []string `schema:"range"`
}

// Engine composes the filter, sort and range compilers into the single
// "query with filters" contract exposed to the API layer. It is stateless
// and safe for concurrent use.
type Engine struct {
	store storage.SubscriptionStore
	opts  FilterOptions
}

// NewEngine creates a query engine on top of a subscription store.
func NewEngine(store storage.SubscriptionStore, opts FilterOptions) *Engine {
	return &Engine{store: store, opts: opts}
}

// List compiles the parameters into a plan, executes it and returns the
// materialized page. When a range was supplied the returned ContentRange
// carries the total count of the filtered, unsliced result set; without a
// range it is nil and all results are returned.
func (e *Engine) List(ctx context.Context, p ListParams) ([]model.Subscription, *ContentRange, error) {
	conds, err := CompileFilters(p.Filter, e.opts)
	if err != nil {
		return nil, nil, err
	}

	plan := storage.Plan{
		Conditions: conds,
		Orders:     CompileSort(p.Sort),
	}

	rng, err := ParseRange(p.Range)
	if err != nil {
		return nil, nil, err
	}

	var cr *ContentRange
	if rng != nil {
		// Total must reflect all filters but not the slice.
		total, err := e.store.Count(ctx, conds)
		if err != nil {
			return nil, nil, err
		}
		plan.Range = rng
		cr = &ContentRange{Resource: "subscriptions", Start: rng.Start, End: rng.End, Total: total}
	}

	page, err := e.store.Select(ctx, plan)
	if err != nil {
		return nil, nil, err
	}
	return page, cr, nil
}
