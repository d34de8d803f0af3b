package eval

import (
	"github.com/FeiBaoHuYu/KJsonQuery/pathlang"
	"github.com/FeiBaoHuYu/KJsonQuery/value"
)

// Matches reports whether obj satisfies f. A nil filter, or one with
// neither conditions nor child filters, matches nothing — this is the
// degraded form a malformed filter expression parses to, so a parse
// failure never propagates as an evaluation error.
func Matches(obj *value.Object, f *pathlang.Filter) bool {
	if f == nil || (len(f.Conditions) == 0 && len(f.Children) == 0) {
		return false
	}
	if len(f.Conditions) > 0 {
		return combineConditions(obj, f.Conditions, f.Op)
	}
	return combineChildren(obj, f.Children, f.Op)
}

func combineConditions(obj *value.Object, conds []pathlang.Condition, op pathlang.LogicalOp) bool {
	if op == pathlang.OpOr {
		for _, c := range conds {
			if matchCondition(obj, c) {
				return true
			}
		}
		return false
	}
	for _, c := range conds {
		if !matchCondition(obj, c) {
			return false
		}
	}
	return true
}

func combineChildren(obj *value.Object, children []*pathlang.Filter, op pathlang.LogicalOp) bool {
	if op == pathlang.OpOr {
		for _, c := range children {
			if Matches(obj, c) {
				return true
			}
		}
		return false
	}
	for _, c := range children {
		if !Matches(obj, c) {
			return false
		}
	}
	return true
}

// matchCondition implements the comparison semantics: a missing property
// is false rather than an error, equality across a string and a number is
// always false, and ordering operators against a non-numeric operand are
// false rather than an error.
func matchCondition(obj *value.Object, c pathlang.Condition) bool {
	v, ok := obj.Get(c.Property)
	if !ok {
		return false
	}
	switch c.Operator {
	case pathlang.OpEQ:
		return value.Equal(v, c.Literal)
	case pathlang.OpNE:
		return !value.Equal(v, c.Literal)
	default:
		lf, lok := value.AsFloat64(v)
		rf, rok := value.AsFloat64(c.Literal)
		if !lok || !rok {
			return false
		}
		switch c.Operator {
		case pathlang.OpLT:
			return lf < rf
		case pathlang.OpLE:
			return lf <= rf
		case pathlang.OpGE:
			return lf >= rf
		case pathlang.OpGT:
			return lf > rf
		default:
			return false
		}
	}
}
