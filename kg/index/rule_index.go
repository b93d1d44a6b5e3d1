package index

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/wbrown/reasongraph/kg"
)

// Wildcard is the reserved sentinel id RuleIndex stores a premise's
// variable positions under.
const Wildcard uint32 = math.MaxUint32

// rulePerm mirrors UnifiedIndex's perm shape but the leaf value is a
// roaring bitmap of rule ids rather than a set of third-position ids.
type rulePerm map[uint32]map[uint32]*roaring.Bitmap

func newRulePerm() rulePerm { return make(rulePerm) }

func (p rulePerm) add(a, b uint32, ruleID int) {
	inner, ok := p[a]
	if !ok {
		inner = make(map[uint32]*roaring.Bitmap)
		p[a] = inner
	}
	bm, ok := inner[b]
	if !ok {
		bm = roaring.New()
		inner[b] = bm
	}
	bm.Add(uint32(ruleID))
}

func (p rulePerm) get(a, b uint32) *roaring.Bitmap {
	inner, ok := p[a]
	if !ok {
		return nil
	}
	return inner[b]
}

// RuleIndex is the same six-permutation shape as UnifiedIndex, keyed by rule
// premises rather than full triples: each premise pattern registers its
// bound positions (or Wildcard for a variable) under every permutation,
// mapping to the set of rule ids that premise belongs to.
type RuleIndex struct {
	spo, pos, osp, pso, ops, sop rulePerm
}

// NewRuleIndex creates an empty RuleIndex.
func NewRuleIndex() *RuleIndex {
	return &RuleIndex{
		spo: newRulePerm(), pos: newRulePerm(), osp: newRulePerm(),
		pso: newRulePerm(), ops: newRulePerm(), sop: newRulePerm(),
	}
}

func termOrWildcard(t kg.Term) uint32 {
	if t.IsVariable() {
		return Wildcard
	}
	return t.ID()
}

// RegisterPremise indexes one premise pattern of rule ruleID under all six
// permutations, using Wildcard for any variable position.
func (ri *RuleIndex) RegisterPremise(ruleID int, pat kg.TriplePattern) {
	s, p, o := termOrWildcard(pat.S), termOrWildcard(pat.P), termOrWildcard(pat.O)
	ri.spo.add(s, p, ruleID)
	ri.pos.add(p, o, ruleID)
	ri.osp.add(o, s, ruleID)
	ri.pso.add(p, s, ruleID)
	ri.ops.add(o, p, ruleID)
	ri.sop.add(s, o, ruleID)
}

// QueryCandidateRules returns the union of rule ids whose premise contains
// at least one pattern that could unify with a triple matching the given
// bound positions. Probing the concrete bucket alone would miss premises
// whose pattern has a variable in that position, so the wildcard bucket at
// every bound level is unioned in too. When all three positions are bound
// only s and p are probed, so the result can also hold rules whose
// matching premise has a different constant object.
func (ri *RuleIndex) QueryCandidateRules(s, p, o *uint32) []int {
	result := roaring.New()

	union := func(bm *roaring.Bitmap) {
		if bm != nil {
			result.Or(bm)
		}
	}

	switch {
	case s != nil && p != nil:
		union(ri.spo.get(*s, *p))
		union(ri.spo.get(*s, Wildcard))
		union(ri.spo.get(Wildcard, *p))
		union(ri.spo.get(Wildcard, Wildcard))
	case p != nil && o != nil:
		union(ri.pos.get(*p, *o))
		union(ri.pos.get(*p, Wildcard))
		union(ri.pos.get(Wildcard, *o))
		union(ri.pos.get(Wildcard, Wildcard))
	case s != nil && o != nil:
		union(ri.sop.get(*s, *o))
		union(ri.sop.get(*s, Wildcard))
		union(ri.sop.get(Wildcard, *o))
		union(ri.sop.get(Wildcard, Wildcard))
	case s != nil:
		unionOuter(ri.spo, *s, result)
		unionOuter(ri.spo, Wildcard, result)
	case p != nil:
		unionOuter(ri.pos, *p, result)
		unionOuter(ri.pos, Wildcard, result)
	case o != nil:
		unionOuter(ri.osp, *o, result)
		unionOuter(ri.osp, Wildcard, result)
	default:
		unionAll(ri.spo, result)
	}

	ids := result.ToArray()
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

func unionOuter(p rulePerm, a uint32, into *roaring.Bitmap) {
	inner, ok := p[a]
	if !ok {
		return
	}
	for _, bm := range inner {
		into.Or(bm)
	}
}

func unionAll(p rulePerm, into *roaring.Bitmap) {
	for _, inner := range p {
		for _, bm := range inner {
			into.Or(bm)
		}
	}
}
