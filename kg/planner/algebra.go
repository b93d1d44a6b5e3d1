// Package planner implements a Volcano-style cost-based query optimizer:
// a logical algebra, per-store statistics, a cost model, and a
// dynamic-programming search that turns a logical plan into the cheapest
// physical plan it can find.
package planner

import (
	"fmt"
	"sort"

	"github.com/wbrown/reasongraph/kg"
)

// Logical is one node of the logical query algebra: Scan,
// Selection, Projection, Join, SubQuery, Bind, or Values. Trees are
// immutable after construction.
type Logical interface {
	logicalNode()
}

// Scan matches a single triple pattern against the store.
type Scan struct {
	Pattern kg.TriplePattern
}

// Selection filters Input's rows by Condition.
type Selection struct {
	Input     Logical
	Condition Condition
}

// Projection keeps only Vars from Input's rows.
type Projection struct {
	Input Logical
	Vars  []string
}

// Join combines Left and Right on their shared variables.
type Join struct {
	Left, Right Logical
}

// SubQuery runs Inner as a nested query, exposing only ProjectedVars to
// the enclosing plan.
type SubQuery struct {
	Inner         Logical
	ProjectedVars []string
}

// Bind evaluates Fn over Args and introduces Output as a new variable.
type Bind struct {
	Input  Logical
	Fn     string
	Args   []string
	Output string
}

// Values is a literal relation: a fixed set of rows over Vars, used to
// seed a plan with externally-supplied bindings.
type Values struct {
	Vars []string
	Rows []kg.Binding
}

func (Scan) logicalNode()       {}
func (Selection) logicalNode()  {}
func (Projection) logicalNode() {}
func (Join) logicalNode()       {}
func (SubQuery) logicalNode()   {}
func (Bind) logicalNode()       {}
func (Values) logicalNode()     {}

// Vars returns the distinct variables a logical node's output rows carry.
func Vars(l Logical) []string {
	switch n := l.(type) {
	case Scan:
		return n.Pattern.Vars()
	case Selection:
		return Vars(n.Input)
	case Projection:
		return n.Vars
	case Join:
		return dedupStrings(append(Vars(n.Left), Vars(n.Right)...))
	case SubQuery:
		return n.ProjectedVars
	case Bind:
		return dedupStrings(append(Vars(n.Input), n.Output))
	case Values:
		return n.Vars
	default:
		panic(fmt.Sprintf("planner: unknown logical node %T", l))
	}
}

func dedupStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func intersectStrings(a, b []string) []string {
	bSet := make(map[string]bool, len(b))
	for _, s := range b {
		bSet[s] = true
	}
	var out []string
	for _, s := range a {
		if bSet[s] {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// Condition is a predicate applied in a Selection, supporting the
// AND/OR/NOT combinators the cost model assigns selectivities to.
type Condition interface {
	conditionNode()
}

// SimpleCondition wraps a single variable/operator/value comparison.
type SimpleCondition struct {
	kg.FilterCondition
}

// AndCondition is the conjunction of two conditions.
type AndCondition struct{ Left, Right Condition }

// OrCondition is the disjunction of two conditions.
type OrCondition struct{ Left, Right Condition }

// NotCondition negates a condition.
type NotCondition struct{ Inner Condition }

func (SimpleCondition) conditionNode() {}
func (AndCondition) conditionNode()    {}
func (OrCondition) conditionNode()     {}
func (NotCondition) conditionNode()    {}
