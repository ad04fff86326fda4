package model

// #region rule
// Rule is one row of a utility function: the closed ordinal interval
// [Low, High] on the parent's scale, plus whether a user entered it.
type Rule struct {
	low     int
	high    int
	entered bool
}

// NewRule validates and builds a rule.
func NewRule(low, high int, entered bool) (Rule, error) {
	if low < 0 {
		return Rule{}, Errorf(KindInvalidRule, "", "low %d is negative", low)
	}
	if high < 0 {
		return Rule{}, Errorf(KindInvalidRule, "", "high %d is negative", high)
	}
	if low > high {
		return Rule{}, Errorf(KindInvalidRule, "", "low %d > high %d", low, high)
	}
	return Rule{low: low, high: high, entered: entered}, nil
}

// Point is an entered rule with low == high.
func Point(v int) Rule {
	r, err := NewRule(v, v, true)
	if err != nil {
		panic(err)
	}
	return r
}

// Low is the lowest ordinal the rule allows.
func (r Rule) Low() int { return r.low }

// High is the highest ordinal the rule allows.
func (r Rule) High() int { return r.high }

// Entered reports whether the rule was set by the model author.
func (r Rule) Entered() bool { return r.entered }

// Explicit reports low == high on an entered rule.
func (r Rule) Explicit() bool { return r.low == r.high && r.entered }

// Width is the number of ordinals covered by the interval.
func (r Rule) Width() int { return r.high - r.low + 1 }
// #endregion rule

// #region function-table
// FunctionTable holds rules in table order: one row per combination of
// children's ordinals, last child varying fastest.
type FunctionTable struct {
	rules []Rule
}

// NewFunctionTable copies rules into a table.
func NewFunctionTable(rules []Rule) *FunctionTable {
	ft := &FunctionTable{rules: make([]Rule, len(rules))}
	copy(ft.rules, rules)
	return ft
}

// Len returns the number of rows; 0 for a nil table.
func (ft *FunctionTable) Len() int {
	if ft == nil {
		return 0
	}
	return len(ft.rules)
}

// Row returns the rule at linear index i.
func (ft *FunctionTable) Row(i int) Rule { return ft.rules[i] }

// Explicit reports whether every rule is explicit.
func (ft *FunctionTable) Explicit() bool {
	if ft == nil {
		return true
	}
	for _, r := range ft.rules {
		if !r.Explicit() {
			return false
		}
	}
	return true
}

// RowIndex computes the mixed-radix linear index of a combination of
// children ordinals. The last child is the least significant digit.
func RowIndex(ordinals, sizes []int) int {
	index := 0
	factor := 1
	for i := len(ordinals) - 1; i >= 0; i-- {
		index += ordinals[i] * factor
		factor *= sizes[i]
	}
	return index
}
// #endregion function-table
