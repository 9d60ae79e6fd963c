package memclient

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/rowset/client"
	"github.com/roach88/rowset/predicate"
)

// matches reports whether row satisfies every predicate (logical AND).
// Exclude semantics need no special handling here: predicates are
// pre-negated at the exclude call site.
func matches(row client.Row, preds []predicate.Predicate) bool {
	for _, p := range preds {
		if !eval(row, p) {
			return false
		}
	}
	return true
}

// eval evaluates one predicate against one row.
//
// Comparison semantics mirror the remote backend: numeric compare when
// both sides are numbers, lexicographic compare when both are strings,
// plain equality for every other scalar pairing. Ordered comparisons
// against an absent or incomparable field never match.
func eval(row client.Row, p predicate.Predicate) bool {
	have := row[p.Field]

	switch p.Op {
	case predicate.OpEq:
		return equal(have, p.Value)
	case predicate.OpNeq:
		return !equal(have, p.Value)
	case predicate.OpGt:
		c, ok := compare(have, p.Value)
		return ok && c > 0
	case predicate.OpGte:
		c, ok := compare(have, p.Value)
		return ok && c >= 0
	case predicate.OpLt:
		c, ok := compare(have, p.Value)
		return ok && c < 0
	case predicate.OpLte:
		c, ok := compare(have, p.Value)
		return ok && c <= 0
	case predicate.OpIn:
		return evalIn(have, p)
	default:
		return false
	}
}

// evalIn tests membership of the row value in the predicate's scalar
// sequence, inverted when the predicate is a negated "in".
func evalIn(have any, p predicate.Predicate) bool {
	seq, _ := p.Value.([]any)
	member := false
	for _, v := range seq {
		if equal(have, v) {
			member = true
			break
		}
	}
	if p.Negated {
		return !member
	}
	return member
}

// equal compares two scalars for equality: numerically when both are
// numbers, by normalized text when both are strings, and by plain
// interface equality otherwise (bools, nils, mixed types).
func equal(a, b any) bool {
	if af, aok := asNumber(a); aok {
		bf, bok := asNumber(b)
		return bok && af == bf
	}
	if as, aok := a.(string); aok {
		bs, bok := b.(string)
		return bok && norm.NFC.String(as) == norm.NFC.String(bs)
	}
	return a == b
}

// compare orders two scalars. ok is false when the pair has no
// ordering (mixed types, bools, nils, missing fields).
//
// Strings are normalized to NFC before byte comparison so that
// equivalent Unicode representations order identically, matching the
// remote backend's UTF-8 text handling.
func compare(a, b any) (int, bool) {
	if af, aok := asNumber(a); aok {
		bf, bok := asNumber(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	if as, aok := a.(string); aok {
		bs, bok := b.(string)
		if !bok {
			return 0, false
		}
		return strings.Compare(norm.NFC.String(as), norm.NFC.String(bs)), true
	}
	return 0, false
}

// asNumber coerces the numeric scalar kinds that reach the store:
// native ints from Go callers, int64 ids, float64 from decoded JSON,
// plus the remaining builtin widths for completeness.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// sortLess orders rows for an Ordering-bearing query. Rows missing the
// sort field (or holding an unorderable value) sort first ascending;
// ties are broken by the caller's stable sort, preserving prior order.
func sortLess(a, b client.Row, field string) bool {
	av, aok := orderable(a[field])
	bv, bok := orderable(b[field])
	if !aok || !bok {
		return !aok && bok
	}
	c, ok := compare(av, bv)
	return ok && c < 0
}

// orderable reports whether v participates in ordered comparison.
func orderable(v any) (any, bool) {
	if _, ok := asNumber(v); ok {
		return v, true
	}
	if _, ok := v.(string); ok {
		return v, true
	}
	return nil, false
}
