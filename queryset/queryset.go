// Package queryset provides the lazy, immutable, chainable query
// builder at the heart of the module.
//
// A QuerySet accumulates filter, exclude, ordering and slicing
// intentions without touching the backend. Refinement methods return a
// new QuerySet; the receiver is never mutated, so call sites can
// branch independent query variants from a shared prefix. Only a
// terminal operation (All, Get, First, Last, Count, Exists, Update,
// Delete, Create, GetOrCreate) compiles the accumulated state into one
// structured request, dispatches it through the client capability, and
// maps the resulting rows through the adapter. Re-invoking a terminal
// operation re-queries; nothing is cached.
package queryset

import (
	"context"

	"github.com/roach88/rowset/client"
	"github.com/roach88/rowset/predicate"
)

// Adapter converts between raw rows and typed entities. Implemented by
// the model layer; the query set only requires the two directions.
type Adapter[T any] interface {
	// FromRow constructs a validated entity from a raw row.
	FromRow(client.Row) (T, error)

	// ToRow serializes an entity back to a raw row. The primary key
	// and unset fields are excluded, so the row is directly usable as
	// an insert body or a partial patch.
	ToRow(T) (client.Row, error)
}

// Lookups is a set of filter expressions: bare field names for
// equality, or "field__op" keys for gt, gte, lt, lte and in lookups.
type Lookups map[string]any

// QuerySet is a deferred query over one table.
//
// The zero value is not usable; construct with New and refine from
// there. All refinement is copy-on-write: predicates accumulate,
// ordering and slicing are last-write-wins.
type QuerySet[T any] struct {
	table   string
	client  client.Client
	adapter Adapter[T]

	preds  []predicate.Predicate
	order  *client.Ordering
	limit  *int
	offset *int

	// err is a deferred refinement error (bad lookup, negative bound).
	// Chaining stays ergonomic; the first terminal operation surfaces it.
	err error
}

// New creates an empty QuerySet over table, dispatching through c and
// hydrating rows with a.
func New[T any](table string, c client.Client, a Adapter[T]) *QuerySet[T] {
	return &QuerySet[T]{table: table, client: c, adapter: a}
}

// clone returns a sibling carrying the receiver's state. The predicate
// slice is copied so forks never share a backing array.
func (qs *QuerySet[T]) clone() *QuerySet[T] {
	dup := *qs
	dup.preds = append([]predicate.Predicate(nil), qs.preds...)
	return &dup
}

// fail returns a sibling carrying a sticky refinement error.
func (qs *QuerySet[T]) fail(err error) *QuerySet[T] {
	dup := qs.clone()
	dup.err = err
	return dup
}

// Filter returns a QuerySet narrowed by the parsed lookups, ANDed onto
// the existing predicates. Filter order never changes the result set.
func (qs *QuerySet[T]) Filter(lookups Lookups) *QuerySet[T] {
	preds, err := predicate.ParseAll(lookups)
	if err != nil {
		return qs.fail(err)
	}
	dup := qs.clone()
	dup.preds = append(dup.preds, preds...)
	return dup
}

// Exclude returns a QuerySet narrowed by the negation of the parsed
// lookups. Each predicate is converted once, at this call site:
// excluding age__gt=5 is exactly filtering age__lte=5.
func (qs *QuerySet[T]) Exclude(lookups Lookups) *QuerySet[T] {
	preds, err := predicate.ParseAll(lookups)
	if err != nil {
		return qs.fail(err)
	}
	dup := qs.clone()
	for _, p := range preds {
		dup.preds = append(dup.preds, p.Negate())
	}
	return dup
}

// OrderBy returns a QuerySet sorted by field. A second OrderBy call
// replaces the first rather than stacking sort keys.
func (qs *QuerySet[T]) OrderBy(field string, descending bool) *QuerySet[T] {
	dup := qs.clone()
	dup.order = &client.Ordering{Field: field, Descending: descending}
	return dup
}

// Limit caps the number of rows a read returns. Replaces any prior
// limit.
func (qs *QuerySet[T]) Limit(n int) *QuerySet[T] {
	if n < 0 {
		return qs.fail(&BoundsError{Kind: "limit", N: n})
	}
	dup := qs.clone()
	dup.limit = &n
	return dup
}

// Offset skips the first n rows of a read. Replaces any prior offset.
func (qs *QuerySet[T]) Offset(n int) *QuerySet[T] {
	if n < 0 {
		return qs.fail(&BoundsError{Kind: "offset", N: n})
	}
	dup := qs.clone()
	dup.offset = &n
	return dup
}

// query compiles the accumulated state into the structured request
// dispatched to the client.
func (qs *QuerySet[T]) query() client.Query {
	return client.Query{
		Table:      qs.table,
		Predicates: qs.preds,
		OrderBy:    qs.order,
		Limit:      qs.limit,
		Offset:     qs.offset,
	}
}

// All materializes every matching row as an entity. Terminal.
func (qs *QuerySet[T]) All(ctx context.Context) ([]T, error) {
	rows, err := qs.selectRows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		obj, err := qs.adapter.FromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// Get narrows by lookups and requires exactly one match. Zero matches
// fail with a NotFoundError, several with a MultipleObjectsError.
// Terminal.
func (qs *QuerySet[T]) Get(ctx context.Context, lookups Lookups) (T, error) {
	var zero T

	narrowed := qs.Filter(lookups)
	rows, err := narrowed.selectRows(ctx)
	if err != nil {
		return zero, err
	}

	switch len(rows) {
	case 0:
		return zero, &NotFoundError{Table: qs.table, Lookups: lookups}
	case 1:
		return qs.adapter.FromRow(rows[0])
	default:
		return zero, &MultipleObjectsError{Table: qs.table, Lookups: lookups, Count: len(rows)}
	}
}

// First returns the first entity of the current materialization, or
// ok=false when the set is empty. Terminal.
func (qs *QuerySet[T]) First(ctx context.Context) (T, bool, error) {
	var zero T
	narrowed := qs
	if qs.limit == nil || *qs.limit > 1 {
		// Fetch a single row, unless the chain's own limit is already
		// at least as tight. A zero limit means an empty set; widening
		// it here would surface a row All and Count never see.
		narrowed = qs.Limit(1)
	}
	rows, err := narrowed.selectRows(ctx)
	if err != nil || len(rows) == 0 {
		return zero, false, err
	}
	obj, err := qs.adapter.FromRow(rows[0])
	if err != nil {
		return zero, false, err
	}
	return obj, true, nil
}

// Last returns the final entity of the current materialization, or
// ok=false when the set is empty. With no ordering set this is the
// last row in backend iteration order. Terminal.
func (qs *QuerySet[T]) Last(ctx context.Context) (T, bool, error) {
	var zero T
	rows, err := qs.selectRows(ctx)
	if err != nil || len(rows) == 0 {
		return zero, false, err
	}
	obj, err := qs.adapter.FromRow(rows[len(rows)-1])
	if err != nil {
		return zero, false, err
	}
	return obj, true, nil
}

// Count returns the number of matching rows without materializing
// entities. Terminal.
func (qs *QuerySet[T]) Count(ctx context.Context) (int, error) {
	if qs.err != nil {
		return 0, qs.err
	}
	return qs.client.Count(ctx, qs.query())
}

// Exists reports whether any row matches. Terminal.
func (qs *QuerySet[T]) Exists(ctx context.Context) (bool, error) {
	n, err := qs.Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Update patch-applies fields to every matching row and returns the
// number of rows updated. Patching the primary key is refused.
// Terminal.
func (qs *QuerySet[T]) Update(ctx context.Context, fields client.Row) (int, error) {
	if qs.err != nil {
		return 0, qs.err
	}
	if _, ok := fields[client.PKColumn]; ok {
		return 0, ErrPatchPrimaryKey
	}
	rows, err := qs.client.Update(ctx, qs.query(), fields)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Delete removes every matching row, returning the count deleted.
// Terminal.
func (qs *QuerySet[T]) Delete(ctx context.Context) (int, error) {
	if qs.err != nil {
		return 0, qs.err
	}
	return qs.client.Delete(ctx, qs.query())
}

// Create inserts one new row and returns the hydrated entity carrying
// its assigned id. Terminal; ignores accumulated predicates.
func (qs *QuerySet[T]) Create(ctx context.Context, fields client.Row) (T, error) {
	var zero T
	if qs.err != nil {
		return zero, qs.err
	}
	row, err := qs.client.Insert(ctx, qs.table, fields)
	if err != nil {
		return zero, err
	}
	return qs.adapter.FromRow(row)
}

// GetOrCreate fetches the single entity matching lookups, creating it
// from lookups merged with defaults when absent. The second return is
// true when a row was created. Only equality lookups can seed a
// create; anything else fails before touching the backend. Terminal.
func (qs *QuerySet[T]) GetOrCreate(ctx context.Context, lookups Lookups, defaults client.Row) (T, bool, error) {
	var zero T

	fields, err := createFields(lookups, defaults)
	if err != nil {
		return zero, false, err
	}

	obj, err := qs.Get(ctx, lookups)
	if err == nil {
		return obj, false, nil
	}
	if !IsNotFound(err) {
		return zero, false, err
	}

	created, err := qs.Create(ctx, fields)
	if err != nil {
		return zero, false, err
	}
	return created, true, nil
}

// createFields merges lookups over defaults into an insertable row.
// Lookup values win over defaults for the same field.
func createFields(lookups Lookups, defaults client.Row) (client.Row, error) {
	fields := make(client.Row, len(lookups)+len(defaults))
	for k, v := range defaults {
		fields[k] = v
	}
	for k, v := range lookups {
		p, err := predicate.Parse(k, v)
		if err != nil {
			return nil, err
		}
		if p.Op != predicate.OpEq {
			return nil, &CreateLookupError{Lookup: k}
		}
		fields[p.Field] = v
	}
	return fields, nil
}

// selectRows dispatches the compiled query, surfacing any deferred
// refinement error first.
func (qs *QuerySet[T]) selectRows(ctx context.Context) ([]client.Row, error) {
	if qs.err != nil {
		return nil, qs.err
	}
	return qs.client.Select(ctx, qs.query())
}
