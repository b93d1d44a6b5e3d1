package reasoner

import (
	"fmt"
	"sort"

	"github.com/wbrown/reasongraph/kg"
)

// renamer hands out fresh variable names for rule instances, so the same
// rule used twice in one proof tree doesn't alias its variables across
// uses; every rule application gets fresh variables.
type renamer struct{ counter int }

func (rn *renamer) fresh(name string) string {
	rn.counter++
	return fmt.Sprintf("%s#%d", name, rn.counter)
}

// rename returns a copy of pat with every variable replaced by a renamer-
// issued fresh name, recorded in mapping so repeated variables within the
// same pattern stay linked.
func rename(pat kg.TriplePattern, rn *renamer, mapping map[string]string) kg.TriplePattern {
	fix := func(t kg.Term) kg.Term {
		if !t.IsVariable() {
			return t
		}
		fresh, ok := mapping[t.Name()]
		if !ok {
			fresh = rn.fresh(t.Name())
			mapping[t.Name()] = fresh
		}
		return kg.Var(fresh)
	}
	return kg.NewPattern(fix(pat.S), fix(pat.P), fix(pat.O))
}

// unify attempts to unify a goal pattern (possibly with variables already
// bound in goalBinding) against a concrete triple, returning the extended
// binding.
func unify(goal kg.TriplePattern, goalBinding kg.Binding, t kg.Triple) (kg.Binding, bool) {
	resolved := kg.NewPattern(
		substituteBound(goal.S, goalBinding),
		substituteBound(goal.P, goalBinding),
		substituteBound(goal.O, goalBinding),
	)
	return bindFromTriple(resolved, t)
}

func substituteBound(t kg.Term, b kg.Binding) kg.Term {
	if t.IsVariable() {
		if id, ok := b[t.Name()]; ok {
			return kg.Const(id)
		}
	}
	return t
}

// Prove runs SLD-resolution backward chaining for a single goal pattern:
// it tries to match the goal directly against stored facts,
// and for every rule whose conclusion could unify with the goal, recurses
// into the rule's premises up to the configured depth bound. Each
// successful path yields one binding over the goal's variables.
func (r *Reasoner) Prove(goal kg.TriplePattern) []kg.Binding {
	rn := &renamer{}
	return r.proveAt(goal, kg.Binding{}, rn, 0)
}

func (r *Reasoner) proveAt(goal kg.TriplePattern, outer kg.Binding, rn *renamer, depth int) []kg.Binding {
	if depth > r.cfg.MaxDepth {
		return nil
	}

	var results []kg.Binding

	resolvedGoal := kg.NewPattern(
		substituteBound(goal.S, outer),
		substituteBound(goal.P, outer),
		substituteBound(goal.O, outer),
	)
	for _, t := range r.QueryPattern(resolvedGoal) {
		if b, ok := unify(goal, outer, t); ok {
			results = append(results, mergeOuter(b, outer))
		}
	}

	for _, rule := range r.snapshotRules() {
		for _, concl := range rule.Conclusion {
			mapping := make(map[string]string)
			renamedConcl := rename(concl, rn, mapping)

			// Rule conclusions are patterns, not concrete triples, so
			// unification against a goal happens structurally: position by
			// position, matching constants and linking variables.
			u, matched := unifyConclusion(resolvedGoal, renamedConcl)
			if !matched {
				continue
			}

			renamedPremise := make([]kg.TriplePattern, len(rule.Premise))
			for i, p := range rule.Premise {
				renamedPremise[i] = rename(p, rn, mapping)
			}
			renamedFilters := make([]kg.FilterCondition, len(rule.Filters))
			for i, f := range rule.Filters {
				renamedFilters[i] = kg.NewFilter(mapping[f.Variable], f.Operator, f.Value)
			}

			for _, premiseBinding := range r.proveConjunction(renamedPremise, u.seed, rn, depth+1) {
				if !r.passesFilters(renamedFilters, premiseBinding) {
					continue
				}
				if goalBinding, ok := u.resolveGoal(premiseBinding); ok {
					results = append(results, mergeOuter(goalBinding, outer))
				}
			}
		}
	}

	return dedupBindings(results)
}

// proveConjunction proves a sequence of premise patterns left to right,
// threading bindings through like a join: each new pattern is proven
// against every binding produced so far, conjunctively.
func (r *Reasoner) proveConjunction(patterns []kg.TriplePattern, seed kg.Binding, rn *renamer, depth int) []kg.Binding {
	bindings := []kg.Binding{seed}
	for _, pat := range patterns {
		var next []kg.Binding
		for _, b := range bindings {
			for _, extended := range r.proveAt(pat, b, rn, depth) {
				next = append(next, extended)
			}
		}
		bindings = next
		if len(bindings) == 0 {
			return nil
		}
	}
	return bindings
}

// conclUnification captures how a goal pattern lines up with a renamed
// rule conclusion: the seed binding for the rule's premises (conclusion
// variables fixed by goal constants), goal variables bound directly by
// conclusion constants, and goal-variable/conclusion-variable links that
// resolve once the premises are proven.
type conclUnification struct {
	seed      kg.Binding
	goalConst kg.Binding
	links     [][2]string // goal variable, renamed conclusion variable
}

func unifyConclusion(goal, concl kg.TriplePattern) (conclUnification, bool) {
	u := conclUnification{seed: kg.Binding{}, goalConst: kg.Binding{}}
	positions := [][2]kg.Term{{goal.S, concl.S}, {goal.P, concl.P}, {goal.O, concl.O}}
	for _, pos := range positions {
		g, c := pos[0], pos[1]
		switch {
		case g.IsConstant() && c.IsConstant():
			if g.ID() != c.ID() {
				return u, false
			}
		case g.IsConstant():
			next, ok := u.seed.Extend(c.Name(), g.ID())
			if !ok {
				return u, false
			}
			u.seed = next
		case c.IsConstant():
			next, ok := u.goalConst.Extend(g.Name(), c.ID())
			if !ok {
				return u, false
			}
			u.goalConst = next
		default:
			u.links = append(u.links, [2]string{g.Name(), c.Name()})
		}
	}
	return u, true
}

// resolveGoal maps a proven premise binding back onto the goal's own
// variables, rejecting proofs where a repeated goal variable resolved to
// two different ids.
func (u conclUnification) resolveGoal(premiseBinding kg.Binding) (kg.Binding, bool) {
	out := u.goalConst.Clone()
	for _, link := range u.links {
		id, ok := premiseBinding[link[1]]
		if !ok {
			return nil, false
		}
		next, ok := out.Extend(link[0], id)
		if !ok {
			return nil, false
		}
		out = next
	}
	return out, true
}

func mergeOuter(inner, outer kg.Binding) kg.Binding {
	out := inner.Clone()
	for k, v := range outer {
		if existing, ok := out[k]; ok && existing != v {
			continue
		}
		out[k] = v
	}
	return out
}

func dedupBindings(bindings []kg.Binding) []kg.Binding {
	seen := make(map[string]bool)
	var out []kg.Binding
	for _, b := range bindings {
		key := bindingKey(b)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, b)
	}
	return out
}

func bindingKey(b kg.Binding) string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for _, k := range keys {
		s += fmt.Sprintf("%s=%d;", k, b[k])
	}
	return s
}
