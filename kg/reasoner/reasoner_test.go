package reasoner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/reasongraph/kg"
)

func grandparentRule(r *Reasoner) Rule {
	hasParent, _ := r.dict.Lookup("hasParent")
	hasGrandparent, _ := r.dict.Lookup("hasGrandparent")
	return Rule{
		Premise: []kg.TriplePattern{
			kg.NewPattern(kg.Var("X"), kg.Const(hasParent), kg.Var("Y")),
			kg.NewPattern(kg.Var("Y"), kg.Const(hasParent), kg.Var("Z")),
		},
		Conclusion: []kg.TriplePattern{
			kg.NewPattern(kg.Var("X"), kg.Const(hasGrandparent), kg.Var("Z")),
		},
	}
}

func newScenarioA() (*Reasoner, map[string]uint32) {
	r := New(DefaultConfig())
	ids := map[string]uint32{
		"alice":          r.dict.Encode("alice"),
		"bob":            r.dict.Encode("bob"),
		"charlie":        r.dict.Encode("charlie"),
		"hasParent":      r.dict.Encode("hasParent"),
		"hasGrandparent": r.dict.Encode("hasGrandparent"),
	}
	r.InsertTriple(kg.NewTriple(ids["alice"], ids["hasParent"], ids["bob"]))
	r.InsertTriple(kg.NewTriple(ids["bob"], ids["hasParent"], ids["charlie"]))
	_, err := r.AddRule(grandparentRule(r))
	if err != nil {
		panic(err)
	}
	return r, ids
}

func TestMaterializeGrandparentRule(t *testing.T) {
	r, ids := newScenarioA()
	stats := r.Materialize()

	alice, hasGrandparent, charlie := ids["alice"], ids["hasGrandparent"], ids["charlie"]
	got := r.Query(&alice, &hasGrandparent, nil)
	require.Len(t, got, 1)
	assert.Equal(t, kg.NewTriple(alice, hasGrandparent, charlie), got[0])
	assert.Equal(t, 3, r.Size())
	assert.Equal(t, 1, stats.TotalDerived)
}

func TestMaterializeIsIdempotent(t *testing.T) {
	r, _ := newScenarioA()
	r.Materialize()
	sizeAfterFirst := r.Size()

	stats := r.Materialize()
	assert.Equal(t, sizeAfterFirst, r.Size())
	assert.Equal(t, 0, stats.TotalDerived)
}

func TestSemiNaiveMatchesNaive(t *testing.T) {
	naive, _ := newScenarioA()
	naive.Materialize()

	semi, _ := newScenarioA()
	semi.MaterializeSemiNaive()

	assert.ElementsMatch(t, naive.Index().Snapshot(), semi.Index().Snapshot())
}

func TestParallelMatchesSerial(t *testing.T) {
	serial, _ := newScenarioA()
	serial.MaterializeSemiNaive()

	parallel, _ := newScenarioA()
	parallel.MaterializeParallel()

	assert.ElementsMatch(t, serial.Index().Snapshot(), parallel.Index().Snapshot())
}

func TestEmptyStoreDerivesNothing(t *testing.T) {
	r := New(DefaultConfig())
	hasParent := r.dict.Encode("hasParent")
	hasGrandparent := r.dict.Encode("hasGrandparent")
	_, err := r.AddRule(Rule{
		Premise: []kg.TriplePattern{
			kg.NewPattern(kg.Var("X"), kg.Const(hasParent), kg.Var("Y")),
			kg.NewPattern(kg.Var("Y"), kg.Const(hasParent), kg.Var("Z")),
		},
		Conclusion: []kg.TriplePattern{
			kg.NewPattern(kg.Var("X"), kg.Const(hasGrandparent), kg.Var("Z")),
		},
	})
	require.NoError(t, err)

	stats := r.Materialize()
	assert.Equal(t, 0, r.Size())
	assert.Equal(t, 1, stats.Rounds)
	assert.Equal(t, 0, stats.TotalDerived)
}

func TestConclusionEqualsPremiseRunsOneRound(t *testing.T) {
	r := New(DefaultConfig())
	p := r.dict.Encode("p")
	r.AddABoxTriple("a", "p", "b")
	_, err := r.AddRule(Rule{
		Premise:    []kg.TriplePattern{kg.NewPattern(kg.Var("X"), kg.Const(p), kg.Var("Y"))},
		Conclusion: []kg.TriplePattern{kg.NewPattern(kg.Var("X"), kg.Const(p), kg.Var("Y"))},
	})
	require.NoError(t, err)

	stats := r.Materialize()
	assert.Equal(t, 1, stats.Rounds)
	assert.Equal(t, 0, stats.TotalDerived)
}

func TestAddRuleRejectsUnboundConclusionVariable(t *testing.T) {
	r := New(DefaultConfig())
	p := r.dict.Encode("p")
	_, err := r.AddRule(Rule{
		Premise:    []kg.TriplePattern{kg.NewPattern(kg.Var("X"), kg.Const(p), kg.Var("Y"))},
		Conclusion: []kg.TriplePattern{kg.NewPattern(kg.Var("X"), kg.Const(p), kg.Var("Z"))},
	})
	assert.Error(t, err)
}

func newScenarioB() (*Reasoner, map[string]uint32) {
	r := New(DefaultConfig())
	ids := map[string]uint32{
		"1":           r.dict.Encode("1"),
		"2":           r.dict.Encode("2"),
		"3":           r.dict.Encode("3"),
		"4":           r.dict.Encode("4"),
		"hasParent":   r.dict.Encode("hasParent"),
		"hasAncestor": r.dict.Encode("hasAncestor"),
	}
	r.InsertTriple(kg.NewTriple(ids["1"], ids["hasParent"], ids["2"]))
	r.InsertTriple(kg.NewTriple(ids["2"], ids["hasParent"], ids["3"]))
	r.InsertTriple(kg.NewTriple(ids["3"], ids["hasParent"], ids["4"]))

	hasParent, hasAncestor := ids["hasParent"], ids["hasAncestor"]
	_, err := r.AddRule(Rule{
		Premise:    []kg.TriplePattern{kg.NewPattern(kg.Var("X"), kg.Const(hasParent), kg.Var("Y"))},
		Conclusion: []kg.TriplePattern{kg.NewPattern(kg.Var("X"), kg.Const(hasAncestor), kg.Var("Y"))},
	})
	if err != nil {
		panic(err)
	}
	_, err = r.AddRule(Rule{
		Premise: []kg.TriplePattern{
			kg.NewPattern(kg.Var("X"), kg.Const(hasParent), kg.Var("Y")),
			kg.NewPattern(kg.Var("Y"), kg.Const(hasAncestor), kg.Var("Z")),
		},
		Conclusion: []kg.TriplePattern{
			kg.NewPattern(kg.Var("X"), kg.Const(hasAncestor), kg.Var("Z")),
		},
	})
	if err != nil {
		panic(err)
	}
	return r, ids
}

func TestBackwardChainAncestorTransitiveClosure(t *testing.T) {
	r, ids := newScenarioB()
	r.Materialize()

	goal := kg.NewPattern(kg.Var("A"), kg.Const(ids["hasAncestor"]), kg.Const(ids["4"]))
	results := r.Prove(goal)

	got := make(map[uint32]bool)
	for _, b := range results {
		got[b["A"]] = true
	}
	assert.Len(t, got, 3)
	assert.True(t, got[ids["1"]])
	assert.True(t, got[ids["2"]])
	assert.True(t, got[ids["3"]])
}

func TestBackwardChainDepthZeroCycleTerminates(t *testing.T) {
	r := New(Config{MaxDepth: 0, WorkerCount: 1})
	p := r.dict.Encode("p")
	_, err := r.AddRule(Rule{
		Premise:    []kg.TriplePattern{kg.NewPattern(kg.Var("X"), kg.Const(p), kg.Var("Y"))},
		Conclusion: []kg.TriplePattern{kg.NewPattern(kg.Var("X"), kg.Const(p), kg.Var("Y"))},
	})
	require.NoError(t, err)

	goal := kg.NewPattern(kg.Var("X"), kg.Const(p), kg.Var("Y"))
	results := r.Prove(goal)
	assert.Empty(t, results)
}

func TestConstraintOnEmptyStoreHasNoViolations(t *testing.T) {
	r := New(DefaultConfig())
	friend := r.dict.Encode("friend")
	_, err := r.AddRule(Rule{
		Premise:    []kg.TriplePattern{kg.NewPattern(kg.Var("X"), kg.Const(friend), kg.Var("X"))},
		Conclusion: []kg.TriplePattern{kg.NewPattern(kg.Const(kg.NullID), kg.Const(kg.NullID), kg.Const(kg.NullID))},
	})
	require.NoError(t, err)
	assert.True(t, r.IsConsistent())
	assert.Empty(t, r.Repair())
}

func TestRepairRemovesSelfFriendViolation(t *testing.T) {
	r := New(DefaultConfig())
	friend := r.dict.Encode("friend")
	alice := r.dict.Encode("alice")
	r.InsertTriple(kg.NewTriple(alice, friend, alice))
	_, err := r.AddRule(Rule{
		Premise:    []kg.TriplePattern{kg.NewPattern(kg.Var("X"), kg.Const(friend), kg.Var("X"))},
		Conclusion: []kg.TriplePattern{kg.NewPattern(kg.Const(kg.NullID), kg.Const(kg.NullID), kg.Const(kg.NullID))},
	})
	require.NoError(t, err)

	assert.False(t, r.IsConsistent())
	repair := r.Repair()
	require.Len(t, repair, 1)
	assert.Equal(t, kg.NewTriple(alice, friend, alice), repair[0])
}

func TestFilterConditionRejectsBindingsBelowThreshold(t *testing.T) {
	r := New(DefaultConfig())
	hasAge := r.dict.Encode("hasAge")
	isAdult := r.dict.Encode("isAdult")
	r.AddABoxTriple("alice", "hasAge", "30")
	r.AddABoxTriple("bob", "hasAge", "10")

	_, err := r.AddRule(Rule{
		Premise: []kg.TriplePattern{kg.NewPattern(kg.Var("X"), kg.Const(hasAge), kg.Var("Age"))},
		Filters: []kg.FilterCondition{kg.NewFilter("Age", kg.OpGte, "18")},
		Conclusion: []kg.TriplePattern{
			kg.NewPattern(kg.Var("X"), kg.Const(isAdult), kg.Var("Age")),
		},
	})
	require.NoError(t, err)

	r.Materialize()

	alice, _ := r.dict.Lookup("alice")
	bob, _ := r.dict.Lookup("bob")
	assert.NotEmpty(t, r.Query(&alice, &isAdult, nil))
	assert.Empty(t, r.Query(&bob, &isAdult, nil))
}

func TestHierarchyPropagatesAcrossLevels(t *testing.T) {
	h := NewHierarchy(DefaultConfig())
	observes := h.Dictionary().Encode("observes")
	hypothesizes := h.Dictionary().Encode("hypothesizes")
	smoke := h.Dictionary().Encode("smoke")

	h.Level(Base).AddABoxTriple("sensor1", "observes", "smoke")

	_, err := h.AddCrossLevelRule(CrossLevelRule{
		Rule: Rule{
			Premise:    []kg.TriplePattern{kg.NewPattern(kg.Var("S"), kg.Const(observes), kg.Const(smoke))},
			Conclusion: []kg.TriplePattern{kg.NewPattern(kg.Var("S"), kg.Const(hypothesizes), kg.Const(smoke))},
		},
		DependsOn: []Level{Base},
		Target:    Abductive,
	})
	require.NoError(t, err)

	added := h.Propagate()
	assert.Equal(t, 1, added[0])
	assert.Equal(t, 1, h.Level(Abductive).Size())
}

func TestTBoxIsSeparateFromABox(t *testing.T) {
	r := New(DefaultConfig())
	r.AddTBoxTriple("Person", "subClassOf", "Agent")
	r.AddABoxTriple("alice", "isA", "Person")

	subClassOf, _ := r.dict.Lookup("subClassOf")
	schema := r.QueryTBox(nil, &subClassOf, nil)
	require.Len(t, schema, 1)

	// The schema assertion is invisible to instance-level queries and to
	// the materialized fact count.
	assert.Equal(t, 1, r.Size())
	assert.Empty(t, r.Query(nil, &subClassOf, nil))
}
