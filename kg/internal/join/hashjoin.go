// Package join implements the multi-way hash join primitive shared between
// the reasoner's rule evaluation and the executor's physical join
// operators. It knows nothing about rules or logical plans —
// it only extends a set of variable bindings one triple pattern at a time
// against anything that can answer a bound/unbound pattern query.
package join

import (
	"encoding/binary"
	"sort"

	"github.com/wbrown/reasongraph/kg"
)

// Index is the minimal contract the hash join needs from a triple store:
// resolve a pattern (with some positions already substituted with
// constants) to its matching triples.
type Index interface {
	QueryPattern(pat kg.TriplePattern) []kg.Triple
}

// Step extends every binding in `bindings` by joining pattern `pat` against
// `idx`. Bindings that share the same values for pat's already-bound
// (join) variables are grouped so the index is probed once per distinct
// group rather than once per binding: a hash table of existing bindings
// keyed by the join-variable tuple.
//
// If bindings is empty, Step seeds a single empty binding first (the base
// case for the first pattern in a premise/query).
func Step(idx Index, pat kg.TriplePattern, bindings []kg.Binding) []kg.Binding {
	if len(bindings) == 0 {
		bindings = []kg.Binding{{}}
	}

	joinVars := joinVariables(pat, bindings[0])

	groups := make(map[string][]kg.Binding)
	var order []string
	for _, b := range bindings {
		key := groupKey(joinVars, b)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], b)
	}

	var out []kg.Binding
	for _, key := range order {
		group := groups[key]
		partial := substituteJoinVars(pat, joinVars, group[0])
		candidates := idx.QueryPattern(partial)
		for _, tr := range candidates {
			for _, b := range group {
				if extended, ok := extendFromTriple(pat, tr, b); ok {
					out = append(out, extended)
				}
			}
		}
	}
	return out
}

// StepAll runs Step across an ordered list of patterns, threading the
// binding set through each pattern in turn. Callers that need a specific
// join order (least-cardinality-first is the optimizer's job) should
// sort patterns before calling StepAll; StepAll itself does not reorder.
func StepAll(idx Index, patterns []kg.TriplePattern, initial []kg.Binding) []kg.Binding {
	bindings := initial
	for _, pat := range patterns {
		bindings = Step(idx, pat, bindings)
		if len(bindings) == 0 {
			return nil
		}
	}
	return bindings
}

// joinVariables returns pat's variables that are already bound in b — the
// ones a candidate triple must agree with rather than introduce.
func joinVariables(pat kg.TriplePattern, b kg.Binding) []string {
	var out []string
	for _, name := range pat.Vars() {
		if _, bound := b[name]; bound {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// groupKey builds a deterministic, collision-free key from b's values for
// the given join variables: a fixed-width big-endian encoding, concatenated
// in sorted-variable order so two bindings with identical join values
// always produce identical keys (and vice versa).
func groupKey(joinVars []string, b kg.Binding) string {
	if len(joinVars) == 0 {
		return ""
	}
	buf := make([]byte, 4*len(joinVars))
	for i, name := range joinVars {
		binary.BigEndian.PutUint32(buf[i*4:], b[name])
	}
	return string(buf)
}

// substituteJoinVars returns a copy of pat with every variable in
// joinVars replaced by the constant it's bound to in b, leaving all other
// variables untouched. This is the "most selective permutation" lookup key
// for the index.
func substituteJoinVars(pat kg.TriplePattern, joinVars []string, b kg.Binding) kg.TriplePattern {
	bound := make(map[string]bool, len(joinVars))
	for _, v := range joinVars {
		bound[v] = true
	}
	fix := func(t kg.Term) kg.Term {
		if t.IsVariable() && bound[t.Name()] {
			return kg.Const(b[t.Name()])
		}
		return t
	}
	return kg.NewPattern(fix(pat.S), fix(pat.P), fix(pat.O))
}

// extendFromTriple extends b with pat's new variables bound to tr's
// corresponding positions, validating that any variable repeated across
// positions (e.g. (X, p, X)) agrees with itself.
func extendFromTriple(pat kg.TriplePattern, tr kg.Triple, b kg.Binding) (kg.Binding, bool) {
	cur := b
	positions := []struct {
		term kg.Term
		val  uint32
	}{{pat.S, tr.S}, {pat.P, tr.P}, {pat.O, tr.O}}

	for _, pos := range positions {
		if !pos.term.IsVariable() {
			continue
		}
		next, ok := cur.Extend(pos.term.Name(), pos.val)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}
