package planner

import (
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/wbrown/reasongraph/kg"
)

// Planner turns a Logical tree into its cheapest Physical tree, memoizing
// by structural hash so a subtree referenced twice (a SubQuery reused
// across branches, a shared Scan) is only costed once.
type Planner struct {
	stats *Statistics
	memo  map[uint64]Physical
}

// NewPlanner creates a Planner backed by the given statistics.
func NewPlanner(stats *Statistics) *Planner {
	return &Planner{stats: stats, memo: make(map[uint64]Physical)}
}

// Plan returns the cheapest physical plan for l, consulting and updating
// the structural-hash memo.
func (p *Planner) Plan(l Logical) Physical {
	key := structuralHash(l)
	if cached, ok := p.memo[key]; ok {
		return cached
	}
	phys := p.planNode(l)
	p.memo[key] = phys
	return phys
}

func (p *Planner) planNode(l Logical) Physical {
	switch n := l.(type) {
	case Scan:
		return p.planScan(n.Pattern)
	case Selection:
		return p.planSelection(n)
	case Projection:
		input := p.Plan(n.Input)
		return ProjectionOp{Input: input, outputVars: n.Vars, card: input.Cardinality(), cost: input.Cost()}
	case Join:
		return p.planJoin(n)
	case SubQuery:
		inner := p.Plan(n.Inner)
		return SubQueryOp{Inner: inner, ProjectedVars: n.ProjectedVars, card: inner.Cardinality(), cost: inner.Cost()}
	case Bind:
		input := p.Plan(n.Input)
		return BindOp{
			Input: input, Fn: n.Fn, Args: n.Args, Output: n.Output,
			outputVars: dedupStrings(append(append([]string{}, input.Vars()...), n.Output)),
			card:       input.Cardinality(),
			cost:       input.Cost() + 1,
		}
	case Values:
		return ValuesOp{ValuesVars: n.Vars, Rows: n.Rows, card: len(n.Rows), cost: float64(len(n.Rows))}
	default:
		panic(fmt.Sprintf("planner: unknown logical node %T", l))
	}
}

func (p *Planner) planScan(pat kg.TriplePattern) Physical {
	card := p.stats.EstimateCardinality(pat)
	bound := pat.BoundCount()
	vars := pat.Vars()
	if bound == 0 {
		return TableScan{Pattern: pat, card: card, cost: tableScanCost(card), outputVars: vars}
	}
	return IndexScan{Pattern: pat, card: card, cost: indexScanCost(card, bound), outputVars: vars}
}

func (p *Planner) planSelection(n Selection) Physical {
	input := p.Plan(n.Input)
	sel := selectivityOf(n.Condition)
	cost := filterCost(input.Cost(), sel)
	card := int(float64(input.Cardinality()) * sel)
	if card < 1 && input.Cardinality() > 0 {
		card = 1
	}
	return FilterOp{Input: input, Condition: n.Condition, card: card, cost: cost, outputVars: input.Vars()}
}

func (p *Planner) planJoin(n Join) Physical {
	left := p.Plan(n.Left)
	right := p.Plan(n.Right)
	joinVars := intersectStrings(Vars(n.Left), Vars(n.Right))
	outputVars := dedupStrings(append(append([]string{}, left.Vars()...), right.Vars()...))

	lc, rc := left.Cardinality(), right.Cardinality()
	sel := p.joinSelectivity(n)
	card := estimateJoinCardinality(lc, rc, sel)

	hashCost := hashJoinCost(left.Cost(), right.Cost(), lc, rc)
	best := Physical(HashJoin{
		Left: left, Right: right, JoinVars: joinVars, BuildLeft: lc <= rc,
		card: card, cost: hashCost, outputVars: outputVars,
	})
	bestCost := hashCost

	optCost := optimizedHashJoinCost(left.Cost(), right.Cost(), lc, rc)
	if optCost < bestCost {
		best = OptimizedHashJoin{
			Left: left, Right: right, JoinVars: joinVars, BuildLeft: lc <= rc,
			card: card, cost: optCost, outputVars: outputVars,
		}
		bestCost = optCost
	}

	if lc < nestedLoopMaxArm && rc < nestedLoopMaxArm {
		nlCost := nestedLoopJoinCost(left.Cost(), right.Cost(), lc, rc)
		if nlCost < bestCost {
			best = NestedLoopJoin{
				Left: left, Right: right, JoinVars: joinVars,
				card: card, cost: nlCost, outputVars: outputVars,
			}
			bestCost = nlCost
		}
	}

	parCost := parallelJoinCost(hashCost, isScan(left) && isScan(right))
	if parCost < bestCost {
		best = ParallelJoin{
			Left: left, Right: right, JoinVars: joinVars,
			card: card, cost: parCost, outputVars: outputVars,
		}
	}

	return best
}

// joinSelectivity looks up the join's selectivity from a bound predicate
// on either side, falling back to the default when neither side pins one
// down.
func (p *Planner) joinSelectivity(n Join) float64 {
	if pred, ok := boundPredicate(n.Left); ok {
		return p.stats.Selectivity(pred)
	}
	if pred, ok := boundPredicate(n.Right); ok {
		return p.stats.Selectivity(pred)
	}
	return 0.1
}

func boundPredicate(l Logical) (uint32, bool) {
	switch n := l.(type) {
	case Scan:
		if n.Pattern.P.IsConstant() {
			return n.Pattern.P.ID(), true
		}
	case Selection:
		return boundPredicate(n.Input)
	case Projection:
		return boundPredicate(n.Input)
	}
	return 0, false
}

func estimateJoinCardinality(left, right int, selectivity float64) int {
	card := int(float64(left) * float64(right) * selectivity)
	if card < 1 {
		card = 1
	}
	return card
}

// structuralHash fingerprints l's shape and the constants/variables it
// closes over; two logical trees that would plan identically hash equal.
func structuralHash(l Logical) uint64 {
	return xxh3.HashString(describe(l))
}

func describe(l Logical) string {
	switch n := l.(type) {
	case Scan:
		return "Scan(" + n.Pattern.String() + ")"
	case Selection:
		return "Selection(" + describe(n.Input) + "," + describeCondition(n.Condition) + ")"
	case Projection:
		return "Projection(" + describe(n.Input) + "," + fmt.Sprint(n.Vars) + ")"
	case Join:
		return "Join(" + describe(n.Left) + "," + describe(n.Right) + ")"
	case SubQuery:
		return "SubQuery(" + describe(n.Inner) + "," + fmt.Sprint(n.ProjectedVars) + ")"
	case Bind:
		return "Bind(" + describe(n.Input) + "," + n.Fn + "," + fmt.Sprint(n.Args) + "," + n.Output + ")"
	case Values:
		return fmt.Sprintf("Values(%v,%v)", n.Vars, n.Rows)
	default:
		return "?"
	}
}

func describeCondition(c Condition) string {
	switch n := c.(type) {
	case SimpleCondition:
		return fmt.Sprintf("%s%s%s", n.Variable, n.Operator, n.Value)
	case AndCondition:
		return "And(" + describeCondition(n.Left) + "," + describeCondition(n.Right) + ")"
	case OrCondition:
		return "Or(" + describeCondition(n.Left) + "," + describeCondition(n.Right) + ")"
	case NotCondition:
		return "Not(" + describeCondition(n.Inner) + ")"
	default:
		return "?"
	}
}
