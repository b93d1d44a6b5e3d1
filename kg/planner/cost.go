package planner

import (
	"math"

	"github.com/wbrown/reasongraph/kg"
)

// Cost model constants, in abstract work units: a table scan is charged per-row at the
// same rate regardless of selectivity; an index scan's cost drops by an
// order of magnitude per bound position, reflecting one more level of the
// six-permutation index narrowing the candidate set.
const (
	tableScanRowCost = 100.0
	hashJoinPerRow   = 2.0
	optimizedPerRow  = 1.0
	nestedLoopPerRow = 10.0
	nestedLoopMaxArm = 1000
)

func tableScanCost(cardinality int) float64 {
	return float64(cardinality) * tableScanRowCost
}

func indexScanCost(cardinality, boundPositions int) float64 {
	return float64(cardinality) / math.Pow(10, float64(boundPositions))
}

// filterSelectivity assigns a default selectivity to a comparison operator
// absent any per-column histogram: equality is assumed highly selective,
// inequality barely selective at all.
func filterSelectivity(op kg.FilterOp) float64 {
	switch op {
	case kg.OpEq:
		return 0.05
	case kg.OpNeq:
		return 0.95
	case kg.OpLt, kg.OpGt:
		return 0.25
	case kg.OpLte, kg.OpGte:
		return 0.30
	default:
		return 0.3
	}
}

func filterCost(inputCost, selectivity float64) float64 {
	return inputCost*selectivity + 1
}

// selectivityOf computes a Condition's combined selectivity: AND
// multiplies, OR follows inclusion-exclusion, NOT complements.
func selectivityOf(cond Condition) float64 {
	switch c := cond.(type) {
	case SimpleCondition:
		return filterSelectivity(c.Operator)
	case AndCondition:
		return selectivityOf(c.Left) * selectivityOf(c.Right)
	case OrCondition:
		a, b := selectivityOf(c.Left), selectivityOf(c.Right)
		return a + b - a*b
	case NotCondition:
		return 1 - selectivityOf(c.Inner)
	default:
		return 0.3
	}
}

func hashJoinCost(leftCost, rightCost float64, leftCard, rightCard int) float64 {
	return leftCost + rightCost + float64(leftCard+rightCard)*hashJoinPerRow
}

func optimizedHashJoinCost(leftCost, rightCost float64, leftCard, rightCard int) float64 {
	return leftCost + rightCost + float64(leftCard+rightCard)*optimizedPerRow
}

func nestedLoopJoinCost(leftCost, rightCost float64, leftCard, rightCard int) float64 {
	return leftCost + rightCost + float64(leftCard*rightCard)*nestedLoopPerRow
}

// parallelJoinCost halves the equivalent hash join's cost when both sides
// are bare scans (no upstream operator to serialize behind), otherwise it
// offers no advantage over the serial hash join.
func parallelJoinCost(hashCost float64, bothScans bool) float64 {
	if bothScans {
		return hashCost / 2
	}
	return hashCost
}
