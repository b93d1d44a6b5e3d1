package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/reasongraph/kg"
	"github.com/wbrown/reasongraph/kg/index"
)

func buildStore(n int) (*index.UnifiedIndex, uint32, uint32) {
	idx := index.NewUnifiedIndex()
	const knows uint32 = 1
	const age uint32 = 2
	for i := 0; i < n; i++ {
		idx.Insert(kg.NewTriple(uint32(i+100), knows, uint32((i+1)%n+100)))
	}
	return idx, knows, age
}

func TestEstimateCardinalityFullyBoundIsOne(t *testing.T) {
	idx, knows, _ := buildStore(10)
	stats := BuildStatistics(idx)
	pat := kg.NewPattern(kg.Const(100), kg.Const(knows), kg.Const(101))
	assert.Equal(t, 1, stats.EstimateCardinality(pat))
}

func TestEstimateCardinalityUnboundIsTotal(t *testing.T) {
	idx, _, _ := buildStore(10)
	stats := BuildStatistics(idx)
	pat := kg.NewPattern(kg.Var("S"), kg.Var("P"), kg.Var("O"))
	assert.Equal(t, 10, stats.EstimateCardinality(pat))
}

func TestEstimateCardinalityOneBoundMatchesPredicateCount(t *testing.T) {
	idx, knows, _ := buildStore(10)
	stats := BuildStatistics(idx)
	pat := kg.NewPattern(kg.Var("S"), kg.Const(knows), kg.Var("O"))
	assert.Equal(t, 10, stats.EstimateCardinality(pat))
}

func TestSelectivityDefaultsWhenPredicateUnknown(t *testing.T) {
	idx, _, _ := buildStore(10)
	stats := BuildStatistics(idx)
	assert.Equal(t, 0.1, stats.Selectivity(9999))
}

func TestPlanScanChoosesIndexScanWhenBound(t *testing.T) {
	idx, knows, _ := buildStore(10)
	stats := BuildStatistics(idx)
	p := NewPlanner(stats)

	pat := kg.NewPattern(kg.Const(100), kg.Const(knows), kg.Var("O"))
	phys := p.Plan(Scan{Pattern: pat})

	_, ok := phys.(IndexScan)
	assert.True(t, ok, "expected IndexScan for a pattern with a bound position, got %T", phys)
}

func TestPlanScanChoosesTableScanWhenUnbound(t *testing.T) {
	idx, _, _ := buildStore(10)
	stats := BuildStatistics(idx)
	p := NewPlanner(stats)

	pat := kg.NewPattern(kg.Var("S"), kg.Var("P"), kg.Var("O"))
	phys := p.Plan(Scan{Pattern: pat})

	_, ok := phys.(TableScan)
	assert.True(t, ok, "expected TableScan for a fully-unbound pattern, got %T", phys)
}

func TestPlanMemoizesIdenticalSubtrees(t *testing.T) {
	idx, knows, _ := buildStore(10)
	stats := BuildStatistics(idx)
	p := NewPlanner(stats)

	pat := kg.NewPattern(kg.Var("S"), kg.Const(knows), kg.Var("O"))
	scan := Scan{Pattern: pat}

	first := p.Plan(scan)
	second := p.Plan(Scan{Pattern: pat})
	assert.Equal(t, first, second)
	assert.Len(t, p.memo, 1)
}

func TestPlanJoinPicksAJoinNodeForTinyInputs(t *testing.T) {
	idx, knows, _ := buildStore(5)
	stats := BuildStatistics(idx)
	p := NewPlanner(stats)

	left := Scan{Pattern: kg.NewPattern(kg.Var("S"), kg.Const(knows), kg.Var("M"))}
	right := Scan{Pattern: kg.NewPattern(kg.Var("M"), kg.Const(knows), kg.Var("O"))}
	phys := p.Plan(Join{Left: left, Right: right})

	switch phys.(type) {
	case HashJoin, OptimizedHashJoin, NestedLoopJoin, ParallelJoin:
	default:
		t.Fatalf("expected a join physical node, got %T", phys)
	}
}

func TestPlanJoinDropsNestedLoopForLargeInputs(t *testing.T) {
	idx, knows, _ := buildStore(5000)
	stats := BuildStatistics(idx)
	p := NewPlanner(stats)

	left := Scan{Pattern: kg.NewPattern(kg.Var("S"), kg.Const(knows), kg.Var("M"))}
	right := Scan{Pattern: kg.NewPattern(kg.Var("M"), kg.Const(knows), kg.Var("O"))}
	phys := p.Plan(Join{Left: left, Right: right})

	_, isNested := phys.(NestedLoopJoin)
	assert.False(t, isNested, "nested loop join should not be offered once both arms exceed the size cap")
}

func TestSelectivityOfCombinators(t *testing.T) {
	eq := SimpleCondition{kg.NewFilter("X", kg.OpEq, "1")}
	neq := SimpleCondition{kg.NewFilter("X", kg.OpNeq, "1")}

	assert.InDelta(t, 0.05*0.95, selectivityOf(AndCondition{eq, neq}), 1e-9)
	assert.InDelta(t, 0.05+0.95-0.05*0.95, selectivityOf(OrCondition{eq, neq}), 1e-9)
	assert.InDelta(t, 1-0.05, selectivityOf(NotCondition{eq}), 1e-9)
}

func TestPlanCacheHitAndMiss(t *testing.T) {
	idx, knows, _ := buildStore(10)
	stats := BuildStatistics(idx)
	p := NewPlanner(stats)
	cache := NewPlanCache(0, 0)

	pat := kg.NewPattern(kg.Var("S"), kg.Const(knows), kg.Var("O"))
	scan := Scan{Pattern: pat}

	_, ok := cache.Get(scan)
	require.False(t, ok)

	phys := p.Plan(scan)
	cache.Set(scan, phys)

	cached, ok := cache.Get(scan)
	require.True(t, ok)
	assert.Equal(t, phys, cached)

	hits, misses, size := cache.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1, size)
}

func TestPlanCacheEvictsOldestAtCapacity(t *testing.T) {
	cache := NewPlanCache(2, 0)
	p1 := Scan{Pattern: kg.NewPattern(kg.Var("S"), kg.Const(1), kg.Var("O"))}
	p2 := Scan{Pattern: kg.NewPattern(kg.Var("S"), kg.Const(2), kg.Var("O"))}
	p3 := Scan{Pattern: kg.NewPattern(kg.Var("S"), kg.Const(3), kg.Var("O"))}

	cache.Set(p1, TableScan{card: 1})
	cache.Set(p2, TableScan{card: 2})
	cache.Set(p3, TableScan{card: 3})

	_, _, size := cache.Stats()
	assert.Equal(t, 2, size)
}

// typeAgeScenario loads n persons, each with a type triple and an age
// triple, the age objects cycling through 50 raw ids (100..149) the way
// the join-with-filter scenario's generator cycles 50 ages.
func typeAgeScenario(n int) (*index.UnifiedIndex, uint32, uint32, uint32) {
	idx := index.NewUnifiedIndex()
	const rdfType, person, age uint32 = 30, 31, 32
	for i := 0; i < n; i++ {
		idx.Insert(kg.NewTriple(uint32(1000+i), rdfType, person))
		idx.Insert(kg.NewTriple(uint32(1000+i), age, uint32(100+i%50)))
	}
	return idx, rdfType, person, age
}

func TestScenarioJoinWithFilterChoosesOptimizedHashJoin(t *testing.T) {
	idx, rdfType, person, age := typeAgeScenario(1000)
	stats := BuildStatistics(idx)
	p := NewPlanner(stats)

	logical := Join{
		Left: Scan{Pattern: kg.NewPattern(kg.Var("p"), kg.Const(rdfType), kg.Const(person))},
		Right: Selection{
			Input:     Scan{Pattern: kg.NewPattern(kg.Var("p"), kg.Const(age), kg.Var("a"))},
			Condition: SimpleCondition{kg.NewFilter("a", kg.OpGt, "30")},
		},
	}
	phys := p.Plan(logical)

	join, ok := phys.(OptimizedHashJoin)
	require.True(t, ok, "expected OptimizedHashJoin, got %T", phys)
	_, ok = join.Left.(IndexScan)
	assert.True(t, ok, "type-scan side should be an IndexScan")
	filter, ok := join.Right.(FilterOp)
	require.True(t, ok, "age side should be a Filter")
	_, ok = filter.Input.(IndexScan)
	assert.True(t, ok, "filter input should be an IndexScan")

	// The filtered side is the smaller one and becomes the build side;
	// the type scan probes it.
	assert.False(t, join.BuildLeft)
	assert.Less(t, filter.Cardinality(), join.Left.Cardinality())
	assert.Greater(t, join.Cost(), 0.0)
}
