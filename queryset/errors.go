package queryset

import (
	"errors"
	"fmt"
)

// NotFoundError reports a Get that matched zero rows. Recoverable;
// callers typically map it to a not-found response or a create path.
type NotFoundError struct {
	// Table is the queried table.
	Table string

	// Lookups are the filters the Get call added, for diagnostics.
	Lookups Lookups
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if len(e.Lookups) > 0 {
		return fmt.Sprintf("%s: no row matches %v", e.Table, e.Lookups)
	}
	return fmt.Sprintf("%s: no row matches", e.Table)
}

// MultipleObjectsError reports a Get that matched more than one row,
// signalling a non-unique lookup. Caller error.
type MultipleObjectsError struct {
	Table   string
	Lookups Lookups

	// Count is the number of rows matched.
	Count int
}

// Error implements the error interface.
func (e *MultipleObjectsError) Error() string {
	return fmt.Sprintf("%s: %d rows match %v, want exactly 1", e.Table, e.Count, e.Lookups)
}

// BoundsError reports a negative limit or offset refinement.
type BoundsError struct {
	// Kind is "limit" or "offset".
	Kind string
	N    int
}

// Error implements the error interface.
func (e *BoundsError) Error() string {
	return fmt.Sprintf("negative %s %d", e.Kind, e.N)
}

// CreateLookupError reports a GetOrCreate whose lookups cannot seed a
// row: only equality lookups name a field value to insert.
type CreateLookupError struct {
	Lookup string
}

// Error implements the error interface.
func (e *CreateLookupError) Error() string {
	return fmt.Sprintf("cannot create from non-equality lookup %q", e.Lookup)
}

// ErrPatchPrimaryKey is returned by Update when the patch includes the
// primary-key column.
var ErrPatchPrimaryKey = errors.New("cannot patch primary key column")

// IsNotFound returns true if the error is a NotFoundError.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// IsMultipleObjects returns true if the error is a MultipleObjectsError.
// Uses errors.As to handle wrapped errors.
func IsMultipleObjects(err error) bool {
	var me *MultipleObjectsError
	return errors.As(err, &me)
}
