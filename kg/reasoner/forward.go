package reasoner

import (
	"sort"

	"github.com/wbrown/reasongraph/kg"
	"github.com/wbrown/reasongraph/kg/internal/join"
	"github.com/wbrown/reasongraph/kg/internal/workerpool"
)

// Materialize runs naive forward chaining to fixpoint: every round
// evaluates every rule against the full current fact set and adds every
// newly-derived conclusion triple. It terminates because rules are
// range-restricted (validated at AddRule) and the domain of ids is finite.
func (r *Reasoner) Materialize() MaterializeStats {
	var stats MaterializeStats
	for {
		newFacts := r.fireAllRulesOnce(r.snapshotRules())
		added := r.insertDerived(newFacts)
		stats.recordRound(added)
		if added == 0 || (r.cfg.MaxRounds > 0 && stats.Rounds >= r.cfg.MaxRounds) {
			return stats
		}
	}
}

// MaterializeSemiNaive runs semi-naive evaluation: each round joins rule
// premises against the delta produced by the previous round rather than
// the whole fact set, so round-to-round cost tracks the frontier instead
// of the total fact count. Only rules the RuleIndex reports as candidates
// for some delta triple are re-evaluated.
func (r *Reasoner) MaterializeSemiNaive() MaterializeStats {
	var stats MaterializeStats

	delta := r.Index().Snapshot()
	for {
		if len(delta) == 0 {
			return stats
		}
		rules := r.candidateRules(r.snapshotRules(), delta)
		var newFacts []kg.Triple
		for _, rule := range rules {
			newFacts = append(newFacts, r.fireRuleOnDelta(rule, delta)...)
		}
		added, addedTriples := r.insertDerivedTracked(newFacts)
		stats.recordRound(added)
		delta = addedTriples
		if added == 0 || (r.cfg.MaxRounds > 0 && stats.Rounds >= r.cfg.MaxRounds) {
			return stats
		}
	}
}

// MaterializeParallel is MaterializeSemiNaive with per-round rule
// evaluation fanned out across the worker pool: each worker accumulates
// its share of rules' derived triples into a local slice, and all
// per-worker slices are merged under one write at the round boundary.
// Rounds stay sequential, so round k+1 observes everything round k added.
func (r *Reasoner) MaterializeParallel() MaterializeStats {
	var stats MaterializeStats

	delta := r.Index().Snapshot()
	for {
		if len(delta) == 0 {
			return stats
		}
		rules := r.candidateRules(r.snapshotRules(), delta)
		newFacts, err := workerpool.Merge(r.pool, rules,
			func() *[]kg.Triple { acc := []kg.Triple{}; return &acc },
			func(rule Rule, acc *[]kg.Triple) error {
				*acc = append(*acc, r.fireRuleOnDelta(rule, delta)...)
				return nil
			},
			func(dst, src *[]kg.Triple) { *dst = append(*dst, *src...) },
		)
		if err != nil {
			return stats
		}
		added, addedTriples := r.insertDerivedTracked(*newFacts)
		stats.recordRound(added)
		delta = addedTriples
		if added == 0 || (r.cfg.MaxRounds > 0 && stats.Rounds >= r.cfg.MaxRounds) {
			return stats
		}
	}
}

func (r *Reasoner) snapshotRules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Rule, 0, len(r.ruleList))
	for _, rl := range r.ruleList {
		if rl.IsConstraint() {
			continue
		}
		out = append(out, rl)
	}
	return out
}

// candidateRules narrows rules to those the RuleIndex reports as having at
// least one premise potentially unifiable with some delta triple. Rules
// outside the candidate set cannot derive anything new this round: none of
// their premises can consume a frontier fact.
func (r *Reasoner) candidateRules(rules []Rule, delta []kg.Triple) []Rule {
	candidates := make(map[int]bool)
	for _, t := range delta {
		s, p, o := t.S, t.P, t.O
		for _, id := range r.rules.QueryCandidateRules(&s, &p, &o) {
			candidates[id] = true
		}
	}
	out := make([]Rule, 0, len(rules))
	for _, rl := range rules {
		if candidates[rl.id] {
			out = append(out, rl)
		}
	}
	return out
}

// fireAllRulesOnce evaluates every rule's premise against the full current
// index and returns every new conclusion triple (one naive round).
func (r *Reasoner) fireAllRulesOnce(rules []Rule) []kg.Triple {
	var out []kg.Triple
	idx := r.Index()
	for _, rule := range rules {
		bindings := join.StepAll(idx, rule.Premise, nil)
		out = append(out, r.instantiate(rule, bindings)...)
	}
	return out
}

// fireRuleOnDelta evaluates rule with, in turn, each premise position
// restricted to the delta and the remaining premises joined against the
// full index. Seeding every position — not just the first — is what makes
// the semi-naive result equal the naive one: a frontier fact may only be
// consumable by the rule's second or later premise. Duplicate derivations
// across positions collapse at insert time.
func (r *Reasoner) fireRuleOnDelta(rule Rule, delta []kg.Triple) []kg.Triple {
	idx := r.Index()
	var out []kg.Triple
	for i, pat := range rule.Premise {
		var seeds []kg.Binding
		for _, t := range delta {
			if b, ok := bindFromTriple(pat, t); ok {
				seeds = append(seeds, b)
			}
		}
		if len(seeds) == 0 {
			continue
		}
		rest := make([]kg.TriplePattern, 0, len(rule.Premise)-1)
		rest = append(rest, rule.Premise[:i]...)
		rest = append(rest, rule.Premise[i+1:]...)
		bindings := join.StepAll(idx, rest, seeds)
		out = append(out, r.instantiate(rule, bindings)...)
	}
	return out
}

// bindFromTriple binds pat's variables from a concrete triple t, failing
// if t doesn't satisfy pat's constant positions or a repeated variable.
func bindFromTriple(pat kg.TriplePattern, t kg.Triple) (kg.Binding, bool) {
	if !pat.Matches(t) {
		return nil, false
	}
	b := kg.Binding{}
	for _, pos := range []struct {
		term kg.Term
		val  uint32
	}{{pat.S, t.S}, {pat.P, t.P}, {pat.O, t.O}} {
		if !pos.term.IsVariable() {
			continue
		}
		next, ok := b.Extend(pos.term.Name(), pos.val)
		if !ok {
			return nil, false
		}
		b = next
	}
	return b, true
}

// instantiate applies a rule's filters then its conclusion patterns to
// every satisfying binding, producing the conclusion triples. Filters
// compare the decoded string bound to their variable, so this needs the
// reasoner's dictionary, unlike the pure join package.
func (r *Reasoner) instantiate(rule Rule, bindings []kg.Binding) []kg.Triple {
	var out []kg.Triple
	for _, b := range bindings {
		if !r.passesFilters(rule.Filters, b) {
			continue
		}
		for _, concl := range rule.Conclusion {
			t, ok := concl.Substitute(b)
			if ok {
				out = append(out, t)
			}
		}
	}
	return out
}

func (r *Reasoner) passesFilters(filters []kg.FilterCondition, b kg.Binding) bool {
	for _, f := range filters {
		id, bound := b[f.Variable]
		if !bound {
			return false
		}
		str, ok := r.dict.Decode(id)
		if !ok {
			return false
		}
		if !kg.EvaluateFilter(f, str) {
			return false
		}
	}
	return true
}

// insertDerived inserts every triple in facts that isn't already present
// and returns how many were actually new.
func (r *Reasoner) insertDerived(facts []kg.Triple) int {
	added := 0
	for _, t := range facts {
		if r.InsertTriple(t) {
			added++
		}
	}
	return added
}

// insertDerivedTracked is insertDerived plus the sorted, deduplicated list
// of triples that were newly added — the next round's delta frontier.
func (r *Reasoner) insertDerivedTracked(facts []kg.Triple) (int, []kg.Triple) {
	var added []kg.Triple
	for _, t := range facts {
		if r.InsertTriple(t) {
			added = append(added, t)
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i].Less(added[j]) })
	return len(added), added
}
