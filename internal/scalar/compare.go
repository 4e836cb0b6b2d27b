package scalar

import "math"

// Operator enumerates the relational operators a watchpoint may use, plus
// the CUSTOM escape hatch and the "no operator configured" sentinel.
type Operator uint8

const (
	OpNone Operator = iota
	OpLess
	OpLessOrEqual
	OpEqual
	OpNotEqual
	OpGreaterOrEqual
	OpGreater
	OpCustom
)

// Compare evaluates "a <op> b" for two values of the same DataType
// category, per spec §4.2: signed vs. unsigned integer comparison
// according to the type tag, IEEE-754 ordered comparison for floats (NaN
// on either side is reported as notOrdered=true so the caller can map it
// to an ERROR result).
func Compare(a Value, op Operator, b Value) (result bool, notOrdered bool) {
	if a.Type.IsFloat() {
		fa, fb := a.AsFloat32(), b.AsFloat32()
		if math.IsNaN(float64(fa)) || math.IsNaN(float64(fb)) {
			return false, true
		}
		return compareOrdered(fa, fb, op), false
	}
	if a.Type.IsSigned() {
		return compareOrdered(a.AsInt32(), b.AsInt32(), op), false
	}
	return compareOrdered(a.AsUint32(), b.AsUint32(), op), false
}

func compareOrdered[T int32 | uint32 | float32](a T, b T, op Operator) bool {
	switch op {
	case OpLess:
		return a < b
	case OpLessOrEqual:
		return a <= b
	case OpEqual:
		return a == b
	case OpNotEqual:
		return a != b
	case OpGreaterOrEqual:
		return a >= b
	case OpGreater:
		return a > b
	default:
		return false
	}
}
