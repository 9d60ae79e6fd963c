package predicate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// lookupSep separates a field name from its operator suffix in a
// lookup key, e.g. "age__gte".
const lookupSep = "__"

// suffixOps maps recognized lookup suffixes to operators. OpNeq is
// deliberately absent: inequality is expressed by excluding an
// equality lookup, never written directly.
var suffixOps = map[string]Operator{
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
	"in":  OpIn,
}

// UnknownLookupError reports a lookup key whose operator suffix is not
// recognized. Parsing is strict: an unknown suffix fails instead of
// silently degrading to an equality filter on a mangled field name.
type UnknownLookupError struct {
	// Lookup is the full lookup key, e.g. "age__approx".
	Lookup string

	// Suffix is the unrecognized operator suffix, e.g. "approx".
	Suffix string
}

func (e *UnknownLookupError) Error() string {
	return fmt.Sprintf("unknown lookup operator %q in %q (supported: gt, gte, lt, lte, in)", e.Suffix, e.Lookup)
}

// BadValueError reports a lookup value that does not fit its operator,
// e.g. a non-sequence value for an "in" lookup.
type BadValueError struct {
	Lookup string
	Reason string
}

func (e *BadValueError) Error() string {
	return fmt.Sprintf("bad value for lookup %q: %s", e.Lookup, e.Reason)
}

// IsUnknownLookup returns true if the error is an UnknownLookupError.
// Uses errors.As to handle wrapped errors.
func IsUnknownLookup(err error) bool {
	var ue *UnknownLookupError
	return errors.As(err, &ue)
}

// Parse converts one lookup key/value pair into a Predicate.
//
// A bare field name defaults to equality; a "field__op" key selects the
// operator named by the suffix. The split happens at the final "__" so
// field names containing the separator still parse when followed by a
// valid suffix.
//
// "in" lookups require a slice or array value, which is copied into a
// []any so the predicate does not alias the caller's slice.
func Parse(lookup string, value any) (Predicate, error) {
	if lookup == "" {
		return Predicate{}, &BadValueError{Lookup: lookup, Reason: "empty field name"}
	}

	field, op, found := splitLookup(lookup)
	if !found {
		// No separator: plain equality on the field itself.
		return Predicate{Field: lookup, Op: OpEq, Value: value}, nil
	}
	if field == "" {
		return Predicate{}, &BadValueError{Lookup: lookup, Reason: "empty field name"}
	}

	operator, ok := suffixOps[op]
	if !ok {
		return Predicate{}, &UnknownLookupError{Lookup: lookup, Suffix: op}
	}

	if operator == OpIn {
		seq, err := scalarSequence(lookup, value)
		if err != nil {
			return Predicate{}, err
		}
		return Predicate{Field: field, Op: OpIn, Value: seq}, nil
	}

	return Predicate{Field: field, Op: operator, Value: value}, nil
}

// ParseAll converts a lookup map into an ordered predicate list.
// Keys are sorted so the compiled output is deterministic regardless of
// map iteration order; predicate conjunction is commutative, so sorting
// never changes the result set.
func ParseAll(lookups map[string]any) ([]Predicate, error) {
	if len(lookups) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(lookups))
	for k := range lookups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	preds := make([]Predicate, 0, len(keys))
	for _, k := range keys {
		p, err := Parse(k, lookups[k])
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	return preds, nil
}

// splitLookup splits a lookup key at its final separator.
// found is false when the key has no separator at all.
func splitLookup(lookup string) (field, op string, found bool) {
	idx := strings.LastIndex(lookup, lookupSep)
	if idx < 0 {
		return lookup, "", false
	}
	return lookup[:idx], lookup[idx+len(lookupSep):], true
}

// scalarSequence copies a slice or array value into a []any.
func scalarSequence(lookup string, value any) ([]any, error) {
	if value == nil {
		return nil, &BadValueError{Lookup: lookup, Reason: "in requires a sequence, got nil"}
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return nil, &BadValueError{Lookup: lookup, Reason: fmt.Sprintf("in requires a sequence, got %T", value)}
	}

	seq := make([]any, rv.Len())
	for i := range seq {
		seq[i] = rv.Index(i).Interface()
	}
	return seq, nil
}
