package kg

import (
	"math"
	"strconv"
	"strings"
)

// floatEpsilon is the tolerance used for numeric equality in filter
// evaluation.
const floatEpsilon = 1e-9

// EvaluateFilter applies a FilterCondition to the decoded string bound to
// its variable. It returns false (never an error) when the comparison
// operator is unknown or the variable's string fails to compare — filter
// rejection is normal control flow, not a reported error.
func EvaluateFilter(f FilterCondition, bound string) bool {
	lf, lerr := strconv.ParseFloat(bound, 64)
	rf, rerr := strconv.ParseFloat(f.Value, 64)
	if lerr == nil && rerr == nil {
		return compareFloats(lf, rf, f.Operator)
	}
	return compareStrings(bound, f.Value, f.Operator)
}

func compareFloats(l, r float64, op FilterOp) bool {
	switch op {
	case OpEq:
		return math.Abs(l-r) <= floatEpsilon
	case OpNeq:
		return math.Abs(l-r) > floatEpsilon
	case OpLt:
		return l < r
	case OpGt:
		return l > r
	case OpLte:
		return l <= r+floatEpsilon
	case OpGte:
		return l >= r-floatEpsilon
	default:
		return false
	}
}

func compareStrings(l, r string, op FilterOp) bool {
	c := strings.Compare(l, r)
	switch op {
	case OpEq:
		return c == 0
	case OpNeq:
		return c != 0
	case OpLt:
		return c < 0
	case OpGt:
		return c > 0
	case OpLte:
		return c <= 0
	case OpGte:
		return c >= 0
	default:
		return false
	}
}
