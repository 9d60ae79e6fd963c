// Package client defines the capability boundary for talking to a row
// store: a small CRUD contract over a single named table, addressed by
// an auto-assigned integer id.
//
// Two interchangeable implementations exist: restclient speaks the
// remote backend's REST filter protocol, memclient evaluates the same
// predicate semantics against a process-lifetime in-memory store. The
// query-set layer is written purely against this interface and cannot
// tell them apart.
package client

import (
	"context"

	"github.com/roach88/rowset/predicate"
)

// Row is one table row: a mapping from column name to scalar value
// (string, number, boolean, null). Persisted rows carry a mandatory
// "id" integer key, the sole addressable primary key.
type Row map[string]any

// PKColumn is the primary-key column name present on every persisted row.
const PKColumn = "id"

// ID returns the row's primary key. ok is false when the id column is
// absent or not a number. JSON decoding yields float64 ids and the
// in-memory store yields int64, so both are accepted.
func (r Row) ID() (int64, bool) {
	switch v := r[PKColumn].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// Clone returns a shallow copy of the row. Values are scalars, so a
// shallow copy is enough to decouple callers from store internals.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Ordering names a sort field and direction for a query.
type Ordering struct {
	Field      string
	Descending bool
}

// Query is the structured request a terminal query-set operation
// dispatches to a backend: the target table, the accumulated predicate
// list (AND semantics), and optional ordering and result slicing.
//
// Limit and Offset are pointers so "unset" is distinguishable from
// zero. Ordering, when present, is a stable sort: rows comparing equal
// on the sort field keep their prior relative order.
type Query struct {
	Table      string
	Predicates []predicate.Predicate
	OrderBy    *Ordering
	Limit      *int
	Offset     *int
}

// Client is the row-store capability consumed by the query-set layer.
//
// Every method performs at most one synchronous round trip and blocks
// until it completes. Implementations do not retry: a failed call
// surfaces the failure to the caller as a *BackendError.
type Client interface {
	// Select returns the rows matching q, ordered and sliced per q.
	Select(ctx context.Context, q Query) ([]Row, error)

	// Insert stores one new row and returns it with its assigned id.
	// Any id present in row is ignored.
	Insert(ctx context.Context, table string, row Row) (Row, error)

	// Update applies patch to every row matching q's predicates and
	// returns the updated rows. Ordering and slicing on q are ignored.
	Update(ctx context.Context, q Query, patch Row) ([]Row, error)

	// Delete removes every row matching q's predicates and returns the
	// number of rows deleted.
	Delete(ctx context.Context, q Query) (int, error)

	// Count returns the number of rows matching q without
	// materializing them, honoring q's slicing so a limited query
	// counts what Select would return.
	Count(ctx context.Context, q Query) (int, error)
}
