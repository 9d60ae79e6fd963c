// Package predicate defines the filter vocabulary shared by every
// backend: a field/operator/value condition plus the negation rules
// that give exclude-style queries their semantics.
//
// Predicates are immutable values. Refinement layers (queryset) build
// ordered predicate lists and backends translate them: the REST client
// compiles each predicate into one query parameter, the in-memory
// client evaluates them directly against rows. A row matches a query
// only when it satisfies every predicate in the list.
package predicate

import "fmt"

// Operator identifies a comparison applied between a row field and a
// predicate value. The names follow the remote backend's filter
// operator naming so the REST compiler can emit them unchanged.
type Operator string

const (
	// OpEq matches rows whose field equals the value.
	OpEq Operator = "eq"

	// OpNeq matches rows whose field differs from the value.
	// Never produced by lookup parsing - it only arises from negating
	// an equality predicate.
	OpNeq Operator = "neq"

	// OpGt matches rows whose field is strictly greater than the value.
	OpGt Operator = "gt"

	// OpGte matches rows whose field is greater than or equal to the value.
	OpGte Operator = "gte"

	// OpLt matches rows whose field is strictly less than the value.
	OpLt Operator = "lt"

	// OpLte matches rows whose field is less than or equal to the value.
	OpLte Operator = "lte"

	// OpIn matches rows whose field equals any element of the value,
	// which must be a finite sequence of scalars.
	OpIn Operator = "in"
)

// Predicate is one filter condition: field, operator, value.
//
// Negated is only meaningful for OpIn, where negation has no
// complementary operator and is carried as a flag ("not in"). Every
// other operator negates into its complement directly, so a parsed
// and possibly negated predicate list never needs post-processing:
// AND-ing all predicates yields both filter and exclude semantics.
type Predicate struct {
	Field   string
	Op      Operator
	Value   any
	Negated bool
}

// Negate returns the logical complement of p.
//
// The mapping is applied once, at the exclude call site:
//
//	eq  <-> neq
//	gt  <-> lte
//	gte <-> lt
//	in  <-> not in (Negated flag)
//
// Negation converts immediately rather than stacking flags, so
// negating the result of Negate restores the original predicate.
func (p Predicate) Negate() Predicate {
	switch p.Op {
	case OpEq:
		p.Op = OpNeq
	case OpNeq:
		p.Op = OpEq
	case OpGt:
		p.Op = OpLte
	case OpLte:
		p.Op = OpGt
	case OpGte:
		p.Op = OpLt
	case OpLt:
		p.Op = OpGte
	case OpIn:
		p.Negated = !p.Negated
	}
	return p
}

// String renders the predicate in the backend's filter notation,
// e.g. "age=gte.20". Used in error messages and logs.
func (p Predicate) String() string {
	if p.Negated {
		return fmt.Sprintf("%s=not.%s.%v", p.Field, p.Op, p.Value)
	}
	return fmt.Sprintf("%s=%s.%v", p.Field, p.Op, p.Value)
}
