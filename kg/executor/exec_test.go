package executor

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/reasongraph/kg"
	"github.com/wbrown/reasongraph/kg/index"
	"github.com/wbrown/reasongraph/kg/planner"
)

func newFixture() (*index.UnifiedIndex, *kg.Dictionary) {
	dict := kg.NewDictionary()
	idx := index.NewUnifiedIndex()
	idx.Insert(dict.EncodeTriple("alice", "knows", "bob"))
	idx.Insert(dict.EncodeTriple("bob", "knows", "charlie"))
	idx.Insert(dict.EncodeTriple("alice", "hasAge", "30"))
	idx.Insert(dict.EncodeTriple("bob", "hasAge", "10"))
	return idx, dict
}

func TestExecuteScanProducesOneRowPerMatch(t *testing.T) {
	idx, dict := newFixture()
	knows, _ := dict.Lookup("knows")
	stats := planner.BuildStatistics(idx)
	p := planner.NewPlanner(stats)

	pat := kg.NewPattern(kg.Var("S"), kg.Const(knows), kg.Var("O"))
	phys := p.Plan(planner.Scan{Pattern: pat})

	exec := NewExecutor(idx, dict, nil, nil)
	rel := exec.Execute(phys)
	assert.Equal(t, 2, rel.Size())
}

func TestExecuteFilterRejectsBelowThreshold(t *testing.T) {
	idx, dict := newFixture()
	hasAge, _ := dict.Lookup("hasAge")
	stats := planner.BuildStatistics(idx)
	p := planner.NewPlanner(stats)

	pat := kg.NewPattern(kg.Var("S"), kg.Const(hasAge), kg.Var("Age"))
	logical := planner.Selection{
		Input:     planner.Scan{Pattern: pat},
		Condition: planner.SimpleCondition{FilterCondition: kg.NewFilter("Age", kg.OpGte, "18")},
	}
	phys := p.Plan(logical)

	exec := NewExecutor(idx, dict, nil, nil)
	rel := exec.Execute(phys)
	require.Equal(t, 1, rel.Size())

	alice, _ := dict.Lookup("alice")
	assert.Equal(t, alice, rel.Rows[0]["S"])
}

func TestExecuteJoinCombinesOnSharedVariable(t *testing.T) {
	idx, dict := newFixture()
	knows, _ := dict.Lookup("knows")
	stats := planner.BuildStatistics(idx)
	p := planner.NewPlanner(stats)

	left := planner.Scan{Pattern: kg.NewPattern(kg.Var("A"), kg.Const(knows), kg.Var("B"))}
	right := planner.Scan{Pattern: kg.NewPattern(kg.Var("B"), kg.Const(knows), kg.Var("C"))}
	phys := p.Plan(planner.Join{Left: left, Right: right})

	exec := NewExecutor(idx, dict, nil, nil)
	rel := exec.Execute(phys)
	require.Equal(t, 1, rel.Size())

	alice, _ := dict.Lookup("alice")
	charlie, _ := dict.Lookup("charlie")
	assert.Equal(t, alice, rel.Rows[0]["A"])
	assert.Equal(t, charlie, rel.Rows[0]["C"])
}

func TestExecuteRecordsCounters(t *testing.T) {
	idx, dict := newFixture()
	knows, _ := dict.Lookup("knows")
	stats := planner.BuildStatistics(idx)
	p := planner.NewPlanner(stats)

	pat := kg.NewPattern(kg.Var("S"), kg.Const(knows), kg.Var("O"))
	phys := p.Plan(planner.Scan{Pattern: pat})

	ctx := NewCountingContext()
	exec := NewExecutor(idx, dict, nil, ctx)
	exec.Execute(phys)

	counters := ctx.Counters()
	assert.Equal(t, 2, counters.RowsOut)
	assert.Greater(t, counters.PlanCostEstimate, 0.0)
}

func TestBindingKeyMapDedupsCollisions(t *testing.T) {
	m := NewBindingKeyMap()
	row1 := kg.Binding{"X": 1, "Y": 2}
	row2 := kg.Binding{"X": 1, "Y": 3}

	m.Add(NewBindingKey(row1, []string{"X"}), row1)
	m.Add(NewBindingKey(row2, []string{"X"}), row2)

	rows, ok := m.Get(NewBindingKey(kg.Binding{"X": 1}, []string{"X"}))
	require.True(t, ok)
	assert.Len(t, rows, 2)
}

func TestTableFormatterRendersHeaderAndRowCount(t *testing.T) {
	idx, dict := newFixture()
	knows, _ := dict.Lookup("knows")
	stats := planner.BuildStatistics(idx)
	p := planner.NewPlanner(stats)
	phys := p.Plan(planner.Scan{Pattern: kg.NewPattern(kg.Var("S"), kg.Const(knows), kg.Var("O"))})

	exec := NewExecutor(idx, dict, nil, nil)
	rel := exec.Execute(phys)

	out := NewTableFormatter().Format(rel, dict)
	assert.Contains(t, out, "2 rows")
}

// TestJoinWithAgeFilterPlanShapeAndCount loads 1000 persons, each with a
// type triple and an age triple (ages cycling 20..69), and checks both
// the planner's choice for the join-with-filter shape and the executed
// row count.
func TestJoinWithAgeFilterPlanShapeAndCount(t *testing.T) {
	dict := kg.NewDictionary()
	idx := index.NewUnifiedIndex()
	rdfType := dict.Encode("type")
	person := dict.Encode("Person")
	age := dict.Encode("age")
	for i := 0; i < 1000; i++ {
		p := dict.Encode(fmt.Sprintf("person%d", i))
		a := dict.Encode(strconv.Itoa(20 + i%50))
		idx.Insert(kg.NewTriple(p, rdfType, person))
		idx.Insert(kg.NewTriple(p, age, a))
	}

	logical := planner.Join{
		Left: planner.Scan{Pattern: kg.NewPattern(kg.Var("p"), kg.Const(rdfType), kg.Const(person))},
		Right: planner.Selection{
			Input:     planner.Scan{Pattern: kg.NewPattern(kg.Var("p"), kg.Const(age), kg.Var("a"))},
			Condition: planner.SimpleCondition{FilterCondition: kg.NewFilter("a", kg.OpGt, "30")},
		},
	}

	phys := planner.NewPlanner(planner.BuildStatistics(idx)).Plan(logical)
	join, ok := phys.(planner.OptimizedHashJoin)
	require.True(t, ok, "expected OptimizedHashJoin, got %T", phys)
	_, ok = join.Left.(planner.IndexScan)
	assert.True(t, ok, "left side should be an IndexScan")
	filter, ok := join.Right.(planner.FilterOp)
	require.True(t, ok, "right side should be a Filter")
	_, ok = filter.Input.(planner.IndexScan)
	assert.True(t, ok, "filter input should be an IndexScan")
	assert.False(t, join.BuildLeft, "the filtered (smaller) side should be the build side")

	rel := NewExecutor(idx, dict, nil, nil).Execute(phys)

	// ages cycle 20..69 twenty times each; 39 of the 50 values exceed 30.
	assert.Equal(t, 780, rel.Size())

	// Raising the threshold to 50 leaves the cycle's top 19 values:
	// 380 persons.
	stricter := planner.Join{
		Left: planner.Scan{Pattern: kg.NewPattern(kg.Var("p"), kg.Const(rdfType), kg.Const(person))},
		Right: planner.Selection{
			Input:     planner.Scan{Pattern: kg.NewPattern(kg.Var("p"), kg.Const(age), kg.Var("a"))},
			Condition: planner.SimpleCondition{FilterCondition: kg.NewFilter("a", kg.OpGt, "50")},
		},
	}
	strictPhys := planner.NewPlanner(planner.BuildStatistics(idx)).Plan(stricter)
	strictRel := NewExecutor(idx, dict, nil, nil).Execute(strictPhys)
	assert.Equal(t, 380, strictRel.Size())
}
