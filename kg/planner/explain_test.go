package planner

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/wbrown/reasongraph/kg"
	"github.com/wbrown/reasongraph/kg/index"
)

// typeAgeStore holds n persons, each with a type triple and an age triple.
func typeAgeStore(n int) *index.UnifiedIndex {
	idx := index.NewUnifiedIndex()
	const rdfType, person, age uint32 = 30, 31, 32
	for i := 0; i < n; i++ {
		idx.Insert(kg.NewTriple(uint32(100+i), rdfType, person))
		idx.Insert(kg.NewTriple(uint32(100+i), age, uint32(200+i)))
	}
	return idx
}

func joinWithFilterPlan() Logical {
	typeScan := Scan{Pattern: kg.NewPattern(kg.Var("p"), kg.Const(30), kg.Const(31))}
	ageScan := Scan{Pattern: kg.NewPattern(kg.Var("p"), kg.Const(32), kg.Var("a"))}
	filtered := Selection{
		Input:     ageScan,
		Condition: SimpleCondition{kg.NewFilter("a", kg.OpGt, "30")},
	}
	return Join{Left: typeScan, Right: filtered}
}

func TestExplainJoinWithFilter(t *testing.T) {
	stats := BuildStatistics(typeAgeStore(10))
	phys := NewPlanner(stats).Plan(joinWithFilterPlan())

	g := goldie.New(t)
	g.Assert(t, "join_filter_plan", []byte(Explain(phys)))
}

func TestExplainIsStableAcrossPlans(t *testing.T) {
	stats := BuildStatistics(typeAgeStore(10))
	first := Explain(NewPlanner(stats).Plan(joinWithFilterPlan()))
	second := Explain(NewPlanner(stats).Plan(joinWithFilterPlan()))
	assert.Equal(t, first, second)
}
