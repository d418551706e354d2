package domain

import (
	"fmt"
	"reflect"
)

// ConditionOperator is the comparison operator of a single condition rule.
type ConditionOperator string

const (
	OpEq    ConditionOperator = "eq"
	OpNe    ConditionOperator = "ne"
	OpGt    ConditionOperator = "gt"
	OpGte   ConditionOperator = "gte"
	OpLt    ConditionOperator = "lt"
	OpLte   ConditionOperator = "lte"
	OpIn    ConditionOperator = "in"
	OpNin   ConditionOperator = "nin"
	OpLike  ConditionOperator = "like"
	OpRegex ConditionOperator = "regex"
)

// IsValid reports whether the operator is one of the known variants.
func (o ConditionOperator) IsValid() bool {
	switch o {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpNin, OpLike, OpRegex:
		return true
	default:
		return false
	}
}

func (o ConditionOperator) String() string {
	return string(o)
}

// LogicalOperator combines the rules of a condition set.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "and"
	LogicalOr  LogicalOperator = "or"
)

// IsValid reports whether the logical operator is one of the known variants.
func (o LogicalOperator) IsValid() bool {
	return o == LogicalAnd || o == LogicalOr
}

func (o LogicalOperator) String() string {
	return string(o)
}

// ConditionRule is one atomic field/operator/value comparison. The JSON form
// is the persisted wire shape of a rule.
type ConditionRule struct {
	Field           string            `json:"field"`
	Operator        ConditionOperator `json:"operator"`
	Value           any               `json:"value"`
	LogicalOperator LogicalOperator   `json:"logicalOperator,omitempty"`
}

// ConditionSet is a validated, ordered sequence of condition rules. It is a
// value object: instances are only built through the Permission aggregate
// (SetConditions) or rehydration, never mutated in place.
type ConditionSet struct {
	rules []ConditionRule
}

// newConditionSet validates the rules and returns the compiled set. The whole
// set is rejected on the first violation. Rule values are normalized to their
// JSON-canonical form (numbers become float64, typed slices become []any) so
// that a serialize/re-parse round trip is structurally stable.
func newConditionSet(rules []ConditionRule) (*ConditionSet, error) {
	normalized := make([]ConditionRule, len(rules))
	for i, r := range rules {
		if r.Field == "" {
			return nil, fmt.Errorf("%w: condition rule %d: field must not be empty", ErrValidation, i)
		}
		if !r.Operator.IsValid() {
			return nil, fmt.Errorf("%w: condition rule %d: unknown operator %q", ErrValidation, i, r.Operator)
		}
		if r.Value == nil {
			return nil, fmt.Errorf("%w: condition rule %d: value is required", ErrValidation, i)
		}
		if r.LogicalOperator != "" && !r.LogicalOperator.IsValid() {
			return nil, fmt.Errorf("%w: condition rule %d: unknown logical operator %q", ErrValidation, i, r.LogicalOperator)
		}
		normalized[i] = ConditionRule{
			Field:           r.Field,
			Operator:        r.Operator,
			Value:           normalizeValue(r.Value),
			LogicalOperator: r.LogicalOperator,
		}
	}
	return &ConditionSet{rules: normalized}, nil
}

// Rules returns a copy of the rule sequence.
func (c *ConditionSet) Rules() []ConditionRule {
	out := make([]ConditionRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Count returns the number of rules in the set.
func (c *ConditionSet) Count() int {
	return len(c.rules)
}

// IsComplex reports whether the set holds more than one rule.
func (c *ConditionSet) IsComplex() bool {
	return len(c.rules) > 1
}

// HasLogicalOperator reports whether any rule carries an explicit combinator.
func (c *ConditionSet) HasLogicalOperator() bool {
	for _, r := range c.rules {
		if r.LogicalOperator != "" {
			return true
		}
	}
	return false
}

// Combinator resolves how the whole set is combined. A single rule tagged
// "or" switches the entire set to OR; everything else combines with AND.
// The switch is all-or-nothing, there are no mixed sub-groups.
func (c *ConditionSet) Combinator() LogicalOperator {
	for _, r := range c.rules {
		if r.LogicalOperator == LogicalOr {
			return LogicalOr
		}
	}
	return LogicalAnd
}

// Fields returns the deduplicated field names referenced by the set, in
// first-seen order.
func (c *ConditionSet) Fields() []string {
	seen := make(map[string]bool, len(c.rules))
	out := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		if !seen[r.Field] {
			seen[r.Field] = true
			out = append(out, r.Field)
		}
	}
	return out
}

// Operators returns the deduplicated operators used by the set, in first-seen
// order.
func (c *ConditionSet) Operators() []ConditionOperator {
	seen := make(map[ConditionOperator]bool, len(c.rules))
	out := make([]ConditionOperator, 0, len(c.rules))
	for _, r := range c.rules {
		if !seen[r.Operator] {
			seen[r.Operator] = true
			out = append(out, r.Operator)
		}
	}
	return out
}

// Equal reports order-sensitive structural equality of the rule sequences.
func (c *ConditionSet) Equal(other *ConditionSet) bool {
	if other == nil {
		return c == nil
	}
	if len(c.rules) != len(other.rules) {
		return false
	}
	for i := range c.rules {
		a, b := c.rules[i], other.rules[i]
		if a.Field != b.Field || a.Operator != b.Operator || a.LogicalOperator != b.LogicalOperator {
			return false
		}
		if !reflect.DeepEqual(a.Value, b.Value) {
			return false
		}
	}
	return true
}

// Predicate compiles the set into its backend-neutral predicate form.
func (c *ConditionSet) Predicate() Predicate {
	fields := make([]FieldPredicate, len(c.rules))
	for i, r := range c.rules {
		fields[i] = compileRule(r)
	}
	return Predicate{combinator: c.Combinator(), fields: fields}
}

// normalizeValue maps a rule value onto its JSON-canonical representation:
// every numeric type becomes float64 and every slice becomes []any with
// normalized elements. Strings, bools and maps pass through by value.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool, string, float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalizeValue(e)
		}
		return out
	}

	// Typed slices ([]string, []int, ...) become []any.
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = normalizeValue(rv.Index(i).Interface())
		}
		return out
	}
	return v
}
