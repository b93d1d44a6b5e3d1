// Package index implements the six-permutation triple index (UnifiedIndex)
// and the rule-candidate index (RuleIndex) that sit above the dictionary
// layer. Both are in-memory, main-memory structures: every query pattern
// with at least one bound position resolves through exactly one of the
// six nested maps without a full scan; a pattern with no bound position
// walks the whole SPO map.
package index

import (
	"github.com/wbrown/reasongraph/kg"
)

// perm is one of the six triple orderings. Each maps an outer key to an
// inner key to the set of remaining-position ids — the third level of
// nesting the permutation name doesn't need a set type of its own, a plain
// map[uint32]struct{} suffices since triple ids are small integers.
type perm map[uint32]map[uint32]map[uint32]struct{}

func newPerm() perm { return make(perm) }

func (p perm) insert(a, b, c uint32) bool {
	inner, ok := p[a]
	if !ok {
		inner = make(map[uint32]map[uint32]struct{})
		p[a] = inner
	}
	set, ok := inner[b]
	if !ok {
		set = make(map[uint32]struct{})
		inner[b] = set
	}
	if _, present := set[c]; present {
		return false
	}
	set[c] = struct{}{}
	return true
}

func (p perm) remove(a, b, c uint32) bool {
	inner, ok := p[a]
	if !ok {
		return false
	}
	set, ok := inner[b]
	if !ok {
		return false
	}
	if _, present := set[c]; !present {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(inner, b)
	}
	if len(inner) == 0 {
		delete(p, a)
	}
	return true
}

// UnifiedIndex is a set of triples equipped with six redundant permutation
// maps (SPO, POS, OSP, PSO, OPS, SOP). Every bound-position pattern has
// sub-linear access through at least one of them.
type UnifiedIndex struct {
	spo, pos, osp, pso, ops, sop perm
	size                         int
}

// NewUnifiedIndex creates an empty index.
func NewUnifiedIndex() *UnifiedIndex {
	return &UnifiedIndex{
		spo: newPerm(), pos: newPerm(), osp: newPerm(),
		pso: newPerm(), ops: newPerm(), sop: newPerm(),
	}
}

// Insert adds t to all six permutations and returns whether it was new.
func (idx *UnifiedIndex) Insert(t kg.Triple) bool {
	// SPO is authoritative for presence; if it's already there every
	// other permutation already has it too.
	if !idx.spo.insert(t.S, t.P, t.O) {
		return false
	}
	idx.pos.insert(t.P, t.O, t.S)
	idx.osp.insert(t.O, t.S, t.P)
	idx.pso.insert(t.P, t.S, t.O)
	idx.ops.insert(t.O, t.P, t.S)
	idx.sop.insert(t.S, t.O, t.P)
	idx.size++
	return true
}

// Remove deletes t from all six permutations and returns whether it was present.
func (idx *UnifiedIndex) Remove(t kg.Triple) bool {
	if !idx.spo.remove(t.S, t.P, t.O) {
		return false
	}
	idx.pos.remove(t.P, t.O, t.S)
	idx.osp.remove(t.O, t.S, t.P)
	idx.pso.remove(t.P, t.S, t.O)
	idx.ops.remove(t.O, t.P, t.S)
	idx.sop.remove(t.S, t.O, t.P)
	idx.size--
	return true
}

// Contains is a fully-bound membership check.
func (idx *UnifiedIndex) Contains(t kg.Triple) bool {
	inner, ok := idx.spo[t.S]
	if !ok {
		return false
	}
	set, ok := inner[t.P]
	if !ok {
		return false
	}
	_, present := set[t.O]
	return present
}

// Size returns the number of distinct triples in the index.
func (idx *UnifiedIndex) Size() int { return idx.size }

// optional converts a pattern Term into the *uint32 shape Query expects:
// nil for a Variable, a pointer to the constant id for a Constant.
func optional(t kg.Term) *uint32 {
	if t.IsVariable() {
		return nil
	}
	id := t.ID()
	return &id
}

// Query returns every triple matching the given pattern. s, p, o are nil
// for unbound positions. The permutation walked is chosen so that any
// bound position reduces the candidate set before the final elements are
// materialized.
func (idx *UnifiedIndex) Query(s, p, o *uint32) []kg.Triple {
	switch {
	case s != nil && p != nil && o != nil:
		if idx.Contains(kg.NewTriple(*s, *p, *o)) {
			return []kg.Triple{kg.NewTriple(*s, *p, *o)}
		}
		return nil
	case s != nil && p != nil:
		return collect(idx.spo, *s, *p, func(a, b, c uint32) kg.Triple { return kg.NewTriple(a, b, c) })
	case s != nil && o != nil:
		return collect(idx.sop, *s, *o, func(a, c, b uint32) kg.Triple { return kg.NewTriple(a, b, c) })
	case p != nil && o != nil:
		return collect(idx.pos, *p, *o, func(a, b, c uint32) kg.Triple { return kg.NewTriple(c, a, b) })
	case s != nil:
		return collectOuter(idx.spo, *s, func(a, b, c uint32) kg.Triple { return kg.NewTriple(a, b, c) })
	case p != nil:
		return collectOuter(idx.pos, *p, func(a, b, c uint32) kg.Triple { return kg.NewTriple(c, a, b) })
	case o != nil:
		return collectOuter(idx.osp, *o, func(a, b, c uint32) kg.Triple { return kg.NewTriple(b, c, a) })
	default:
		return idx.all()
	}
}

// QueryPattern is a convenience wrapper over Query taking a kg.TriplePattern.
func (idx *UnifiedIndex) QueryPattern(pat kg.TriplePattern) []kg.Triple {
	return idx.Query(optional(pat.S), optional(pat.P), optional(pat.O))
}

func collect(p perm, a, b uint32, build func(a, b, c uint32) kg.Triple) []kg.Triple {
	inner, ok := p[a]
	if !ok {
		return nil
	}
	set, ok := inner[b]
	if !ok {
		return nil
	}
	out := make([]kg.Triple, 0, len(set))
	for c := range set {
		out = append(out, build(a, b, c))
	}
	return out
}

func collectOuter(p perm, a uint32, build func(a, b, c uint32) kg.Triple) []kg.Triple {
	inner, ok := p[a]
	if !ok {
		return nil
	}
	out := make([]kg.Triple, 0)
	for b, set := range inner {
		for c := range set {
			out = append(out, build(a, b, c))
		}
	}
	return out
}

func (idx *UnifiedIndex) all() []kg.Triple {
	out := make([]kg.Triple, 0, idx.size)
	for s, inner := range idx.spo {
		for p, set := range inner {
			for o := range set {
				out = append(out, kg.NewTriple(s, p, o))
			}
		}
	}
	return out
}

// BuildFromTriples bulk-constructs the index in one pass, replacing any
// existing contents. The pass inserts each triple through Insert, so every
// triple still updates all six permutations one at a time.
func (idx *UnifiedIndex) BuildFromTriples(ts []kg.Triple) {
	idx.spo, idx.pos, idx.osp = newPerm(), newPerm(), newPerm()
	idx.pso, idx.ops, idx.sop = newPerm(), newPerm(), newPerm()
	idx.size = 0
	for _, t := range ts {
		idx.Insert(t)
	}
}

// MergeFrom unions other's triples into idx.
func (idx *UnifiedIndex) MergeFrom(other *UnifiedIndex) {
	for _, t := range other.all() {
		idx.Insert(t)
	}
}

// Snapshot returns every triple currently in the index, in no particular order.
func (idx *UnifiedIndex) Snapshot() []kg.Triple { return idx.all() }
