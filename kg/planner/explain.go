package planner

import (
	"fmt"
	"strings"
)

// Explain renders a physical plan as an indented tree, one operator per
// line with its estimated cost and cardinality. Output is deterministic
// for a given plan, so it is stable enough to snapshot in tests.
func Explain(p Physical) string {
	var b strings.Builder
	explainNode(&b, p, 0)
	return b.String()
}

func explainNode(b *strings.Builder, p Physical, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s%s (cost=%.1f, rows=%d)\n", indent, opLabel(p), p.Cost(), p.Cardinality())
	for _, child := range children(p) {
		explainNode(b, child, depth+1)
	}
}

func opLabel(p Physical) string {
	switch n := p.(type) {
	case TableScan:
		return fmt.Sprintf("TableScan %s", n.Pattern)
	case IndexScan:
		return fmt.Sprintf("IndexScan %s", n.Pattern)
	case FilterOp:
		return fmt.Sprintf("Filter %s", condLabel(n.Condition))
	case ProjectionOp:
		return fmt.Sprintf("Projection [%s]", strings.Join(n.Vars(), ", "))
	case HashJoin:
		return fmt.Sprintf("HashJoin on [%s] build=%s", strings.Join(n.JoinVars, ", "), buildSide(n.BuildLeft))
	case OptimizedHashJoin:
		return fmt.Sprintf("OptimizedHashJoin on [%s] build=%s", strings.Join(n.JoinVars, ", "), buildSide(n.BuildLeft))
	case NestedLoopJoin:
		return fmt.Sprintf("NestedLoopJoin on [%s]", strings.Join(n.JoinVars, ", "))
	case ParallelJoin:
		return fmt.Sprintf("ParallelJoin on [%s]", strings.Join(n.JoinVars, ", "))
	case StarJoin:
		return fmt.Sprintf("StarJoin (%d satellites)", len(n.Satellites))
	case SubQueryOp:
		return fmt.Sprintf("SubQuery [%s]", strings.Join(n.ProjectedVars, ", "))
	case BindOp:
		return fmt.Sprintf("Bind ?%s = %s(%s)", n.Output, n.Fn, strings.Join(n.Args, ", "))
	case ValuesOp:
		return fmt.Sprintf("Values [%s] (%d rows)", strings.Join(n.ValuesVars, ", "), len(n.Rows))
	case InMemoryBuffer:
		return "InMemoryBuffer"
	case MLPredict:
		return fmt.Sprintf("MLPredict %s(%s) -> ?%s", n.ModelName, strings.Join(n.InputVars, ", "), n.Output)
	default:
		return fmt.Sprintf("%T", p)
	}
}

func condLabel(c Condition) string {
	switch n := c.(type) {
	case SimpleCondition:
		return fmt.Sprintf("?%s %s %s", n.Variable, n.Operator, n.Value)
	case AndCondition:
		return fmt.Sprintf("(%s AND %s)", condLabel(n.Left), condLabel(n.Right))
	case OrCondition:
		return fmt.Sprintf("(%s OR %s)", condLabel(n.Left), condLabel(n.Right))
	case NotCondition:
		return fmt.Sprintf("NOT %s", condLabel(n.Inner))
	default:
		return fmt.Sprintf("%T", c)
	}
}

func buildSide(left bool) string {
	if left {
		return "left"
	}
	return "right"
}

func children(p Physical) []Physical {
	switch n := p.(type) {
	case FilterOp:
		return []Physical{n.Input}
	case ProjectionOp:
		return []Physical{n.Input}
	case HashJoin:
		return []Physical{n.Left, n.Right}
	case OptimizedHashJoin:
		return []Physical{n.Left, n.Right}
	case NestedLoopJoin:
		return []Physical{n.Left, n.Right}
	case ParallelJoin:
		return []Physical{n.Left, n.Right}
	case StarJoin:
		return append([]Physical{n.Center}, n.Satellites...)
	case SubQueryOp:
		return []Physical{n.Inner}
	case BindOp:
		return []Physical{n.Input}
	case InMemoryBuffer:
		return []Physical{n.Input}
	case MLPredict:
		return []Physical{n.Input}
	default:
		return nil
	}
}
