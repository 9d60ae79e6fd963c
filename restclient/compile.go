// Package restclient implements the client capability against a
// remote tabular backend speaking PostgREST-style filter conventions:
// one query parameter per predicate, repeated parameters ANDed, and
// result shaping via order/limit/offset parameters.
package restclient

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/rowset/client"
	"github.com/roach88/rowset/predicate"
)

// Params compiles a query into the backend's request parameters.
//
// Each predicate becomes one "{field}={op}.{value}" parameter, with a
// "not." prefix for negated membership tests and a comma-joined
// parenthesised list for "in" values:
//
//	age=gte.20
//	name=neq.widget
//	status=in.(new,open)
//	status=not.in.(closed,archived)
//
// Predicates arrive already ordered (lookups are parsed in sorted key
// order), so compiled output is deterministic for a given query.
func Params(q client.Query) url.Values {
	v := filterParams(q)

	if q.OrderBy != nil {
		dir := "asc"
		if q.OrderBy.Descending {
			dir = "desc"
		}
		v.Set("order", q.OrderBy.Field+"."+dir)
	}
	if q.Limit != nil {
		v.Set("limit", strconv.Itoa(*q.Limit))
	}
	if q.Offset != nil {
		v.Set("offset", strconv.Itoa(*q.Offset))
	}

	return v
}

// filterParams compiles only the predicate list, for operations that
// ignore ordering and slicing (update, delete).
func filterParams(q client.Query) url.Values {
	v := url.Values{}
	for _, p := range q.Predicates {
		v.Add(p.Field, filterValue(p))
	}
	return v
}

// filterValue renders the operator.value half of one filter parameter.
func filterValue(p predicate.Predicate) string {
	op := string(p.Op)
	if p.Negated {
		op = "not." + op
	}

	if p.Op == predicate.OpIn {
		seq, _ := p.Value.([]any)
		parts := make([]string, len(seq))
		for i, item := range seq {
			parts[i] = formatScalar(item, true)
		}
		return op + ".(" + strings.Join(parts, ",") + ")"
	}

	return op + "." + formatScalar(p.Value, false)
}

// formatScalar renders one scalar in the backend's literal syntax.
// Inside "in" lists, strings containing list syntax are double-quoted
// so commas and parentheses survive; URL escaping itself is left to
// url.Values.Encode.
func formatScalar(v any, inList bool) string {
	switch s := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(s)
	case string:
		if inList && strings.ContainsAny(s, `,()"`) {
			return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
		}
		return s
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'g', -1, 32)
	default:
		return fmt.Sprintf("%v", v)
	}
}
