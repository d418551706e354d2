package domain

import (
	"reflect"
	"regexp"
	"strings"

	"gorm.io/gorm/clause"
)

// FieldPredicate is one compiled comparison of the backend-neutral predicate
// form. For in/nin the value is always a []any sequence.
type FieldPredicate struct {
	Field    string
	Operator ConditionOperator
	Value    any
}

// Predicate is the compiled form of a condition set. The zero value is the
// empty predicate, which matches every record and renders no SQL.
type Predicate struct {
	combinator LogicalOperator
	fields     []FieldPredicate
}

// compileRule lowers one validated rule into its predicate field. Scalar
// values of in/nin are wrapped into a single-element sequence. The operator
// fallback to equals is unreachable for rules that passed validation.
func compileRule(r ConditionRule) FieldPredicate {
	op := r.Operator
	if !op.IsValid() {
		op = OpEq
	}
	v := r.Value
	if op == OpIn || op == OpNin {
		if _, ok := v.([]any); !ok {
			v = []any{v}
		}
	}
	return FieldPredicate{Field: r.Field, Operator: op, Value: v}
}

// Combinator returns how the field predicates combine. Unset means AND.
func (p Predicate) Combinator() LogicalOperator {
	if p.combinator == "" {
		return LogicalAnd
	}
	return p.combinator
}

// Fields returns a copy of the compiled field predicates.
func (p Predicate) Fields() []FieldPredicate {
	out := make([]FieldPredicate, len(p.fields))
	copy(out, p.fields)
	return out
}

// IsEmpty reports whether the predicate matches unconditionally.
func (p Predicate) IsEmpty() bool {
	return len(p.fields) == 0
}

// Matches evaluates the predicate in memory against an attribute map.
// Attributes absent from the map satisfy only the negated operators.
func (p Predicate) Matches(attrs map[string]any) bool {
	if len(p.fields) == 0 {
		return true
	}
	if p.Combinator() == LogicalOr {
		for _, f := range p.fields {
			if f.matches(attrs) {
				return true
			}
		}
		return false
	}
	for _, f := range p.fields {
		if !f.matches(attrs) {
			return false
		}
	}
	return true
}

func (f FieldPredicate) matches(attrs map[string]any) bool {
	actual := normalizeValue(attrs[f.Field])
	switch f.Operator {
	case OpNe:
		return !reflect.DeepEqual(actual, f.Value)
	case OpGt:
		c, ok := compareValues(actual, f.Value)
		return ok && c > 0
	case OpGte:
		c, ok := compareValues(actual, f.Value)
		return ok && c >= 0
	case OpLt:
		c, ok := compareValues(actual, f.Value)
		return ok && c < 0
	case OpLte:
		c, ok := compareValues(actual, f.Value)
		return ok && c <= 0
	case OpIn:
		return containsValue(f.Value, actual)
	case OpNin:
		return !containsValue(f.Value, actual)
	case OpLike:
		return likeMatch(actual, f.Value)
	case OpRegex:
		return regexMatch(actual, f.Value)
	default:
		return reflect.DeepEqual(actual, f.Value)
	}
}

// compareValues orders two normalized values. Only numbers compare with
// numbers and strings with strings; everything else is incomparable.
func compareValues(a, b any) (int, bool) {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		default:
			return 0, true
		}
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	default:
		return 0, false
	}
}

func containsValue(seq, v any) bool {
	items, ok := seq.([]any)
	if !ok {
		items = []any{seq}
	}
	for _, it := range items {
		if reflect.DeepEqual(it, v) {
			return true
		}
	}
	return false
}

// likeMatch implements the case-insensitive like operator: a plain pattern
// is a substring test, a pattern containing % or _ matches SQL-style with
// % as any run and _ as any single character.
func likeMatch(actual, pattern any) bool {
	s, ok := actual.(string)
	if !ok {
		return false
	}
	p, ok := pattern.(string)
	if !ok {
		return false
	}
	s, p = strings.ToLower(s), strings.ToLower(p)
	if !strings.ContainsAny(p, "%_") {
		return strings.Contains(s, p)
	}
	re, err := regexp.Compile("^" + likePatternToRegexp(p) + "$")
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func likePatternToRegexp(p string) string {
	var b strings.Builder
	for _, r := range p {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// regexMatch implements the case-sensitive regex operator. Non-string values
// and invalid patterns never match.
func regexMatch(actual, pattern any) bool {
	s, ok := actual.(string)
	if !ok {
		return false
	}
	p, ok := pattern.(string)
	if !ok {
		return false
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

// Expression renders the predicate as a gorm clause for pushdown into list
// queries. The empty predicate renders nil, which gorm treats as no filter.
func (p Predicate) Expression() clause.Expression {
	if len(p.fields) == 0 {
		return nil
	}
	exprs := make([]clause.Expression, len(p.fields))
	for i, f := range p.fields {
		exprs[i] = f.expression()
	}
	if len(exprs) == 1 {
		return exprs[0]
	}
	if p.Combinator() == LogicalOr {
		return clause.Or(exprs...)
	}
	return clause.And(exprs...)
}

func (f FieldPredicate) expression() clause.Expression {
	col := clause.Column{Name: f.Field}
	switch f.Operator {
	case OpNe:
		return clause.Neq{Column: col, Value: f.Value}
	case OpGt:
		return clause.Gt{Column: col, Value: f.Value}
	case OpGte:
		return clause.Gte{Column: col, Value: f.Value}
	case OpLt:
		return clause.Lt{Column: col, Value: f.Value}
	case OpLte:
		return clause.Lte{Column: col, Value: f.Value}
	case OpIn:
		return clause.IN{Column: col, Values: valueSequence(f.Value)}
	case OpNin:
		return clause.Not(clause.IN{Column: col, Values: valueSequence(f.Value)})
	case OpLike:
		pattern, _ := f.Value.(string)
		if !strings.ContainsAny(pattern, "%_") {
			pattern = "%" + pattern + "%"
		}
		return clause.Expr{SQL: "LOWER(?) LIKE ?", Vars: []any{col, strings.ToLower(pattern)}}
	case OpRegex:
		return clause.Expr{SQL: "? ~ ?", Vars: []any{col, f.Value}}
	default:
		return clause.Eq{Column: col, Value: f.Value}
	}
}

func valueSequence(v any) []any {
	if items, ok := v.([]any); ok {
		return items
	}
	return []any{v}
}
