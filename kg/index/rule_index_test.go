package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wbrown/reasongraph/kg"
)

func TestRuleIndexFindsCandidateByConcreteBucket(t *testing.T) {
	ri := NewRuleIndex()
	// rule 0: (?x hasParent ?y)
	ri.RegisterPremise(0, kg.NewPattern(kg.Var("x"), kg.Const(10), kg.Var("y")))
	// rule 1: (?x hasAncestor ?y)
	ri.RegisterPremise(1, kg.NewPattern(kg.Var("x"), kg.Const(20), kg.Var("y")))

	candidates := ri.QueryCandidateRules(nil, u32(10), nil)
	assert.ElementsMatch(t, []int{0}, candidates)
}

func TestRuleIndexWildcardAlwaysCandidate(t *testing.T) {
	ri := NewRuleIndex()
	// rule 0 has a fully-variable premise: (?x ?p ?y)
	ri.RegisterPremise(0, kg.NewPattern(kg.Var("x"), kg.Var("p"), kg.Var("y")))
	ri.RegisterPremise(1, kg.NewPattern(kg.Var("x"), kg.Const(99), kg.Var("y")))

	candidates := ri.QueryCandidateRules(nil, u32(10), nil)
	assert.ElementsMatch(t, []int{0}, candidates)
}

func TestRuleIndexEmptyOnNoMatch(t *testing.T) {
	ri := NewRuleIndex()
	ri.RegisterPremise(0, kg.NewPattern(kg.Var("x"), kg.Const(10), kg.Var("y")))
	assert.Empty(t, ri.QueryCandidateRules(nil, u32(999), nil))
}
