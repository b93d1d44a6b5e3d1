package reasoner

import (
	"sort"

	"github.com/wbrown/reasongraph/kg"
	"github.com/wbrown/reasongraph/kg/internal/join"
)

// violationKey identifies one firing of one constraint: which constraint,
// and which of its (possibly several) satisfying bindings.
type violationKey struct {
	constraintID int
	bindingIdx   int
}

// ViolatedConstraints evaluates every registered integrity constraint
// (a rule whose conclusion is the reserved (0,0,0) triple)
// against the current fact set and returns the distinct bindings under
// which each one fires — i.e. the witnesses of the violation.
func (r *Reasoner) ViolatedConstraints() map[int][]kg.Binding {
	r.mu.RLock()
	constraintIDs := make([]int, len(r.constraints))
	copy(constraintIDs, r.constraints)
	rules := make([]Rule, len(r.ruleList))
	copy(rules, r.ruleList)
	r.mu.RUnlock()

	out := make(map[int][]kg.Binding)
	idx := r.Index()
	for _, id := range constraintIDs {
		rule := rules[id]
		var bindings []kg.Binding
		for _, b := range join.StepAll(idx, rule.Premise, nil) {
			if r.passesFilters(rule.Filters, b) {
				bindings = append(bindings, b)
			}
		}
		if len(bindings) > 0 {
			out[id] = bindings
		}
	}
	return out
}

// IsConsistent reports whether no integrity constraint currently fires.
func (r *Reasoner) IsConsistent() bool {
	return len(r.ViolatedConstraints()) == 0
}

// Repair computes a minimal set of triples to remove so that every
// registered constraint stops firing, greedily: repeatedly pick the
// removal candidate that eliminates the most
// outstanding violations, breaking ties by Triple.Less, until none remain
// or no remaining candidate clears anything. It does not mutate the
// store; callers apply the returned triples with RemoveTriple.
func (r *Reasoner) Repair() []kg.Triple {
	violations := r.ViolatedConstraints()
	if len(violations) == 0 {
		return nil
	}

	r.mu.RLock()
	rules := make([]Rule, len(r.ruleList))
	copy(rules, r.ruleList)
	r.mu.RUnlock()

	// candidateFor maps each candidate removal triple to the violations
	// it participates in, so removing it can be scored by how many it
	// clears.
	candidateFor := make(map[kg.Triple]map[violationKey]bool)
	remaining := make(map[violationKey]bool)

	for cid, bindings := range violations {
		rule := rules[cid]
		for bi, b := range bindings {
			key := violationKey{cid, bi}
			remaining[key] = true
			for _, pat := range rule.Premise {
				t, ok := pat.Substitute(b)
				if !ok {
					continue
				}
				if candidateFor[t] == nil {
					candidateFor[t] = make(map[violationKey]bool)
				}
				candidateFor[t][key] = true
			}
		}
	}

	var repair []kg.Triple
	for len(remaining) > 0 {
		best, score := pickBestCandidate(candidateFor, remaining)
		if score == 0 {
			// No remaining candidate clears any outstanding violation;
			// range-restriction at AddRule guarantees every constraint
			// premise mentions a bound triple, so this shouldn't happen,
			// but we stop rather than loop forever.
			break
		}
		repair = append(repair, best)
		for key := range candidateFor[best] {
			delete(remaining, key)
		}
		delete(candidateFor, best)
	}

	sort.Slice(repair, func(i, j int) bool { return repair[i].Less(repair[j]) })
	return repair
}

// pickBestCandidate selects the triple clearing the most outstanding
// violations, breaking ties lexicographically by Triple.Less so the repair
// set is deterministic.
func pickBestCandidate(candidateFor map[kg.Triple]map[violationKey]bool, remaining map[violationKey]bool) (kg.Triple, int) {
	var best kg.Triple
	bestScore := 0
	first := true
	for t, keys := range candidateFor {
		score := 0
		for k := range keys {
			if remaining[k] {
				score++
			}
		}
		if score == 0 {
			continue
		}
		if first || score > bestScore || (score == bestScore && t.Less(best)) {
			best = t
			bestScore = score
			first = false
		}
	}
	return best, bestScore
}

// maxRepairPasses bounds repair-then-rechain cycling for the case where a
// removed triple is itself rederivable and the constraint re-fires.
const maxRepairPasses = 10

// MaterializeWithRepairs materializes to fixpoint, then repairs any
// constraint violations by removing the Repair set and re-running forward
// chaining, repeating until the store is consistent or the pass bound is
// hit. Returns the accumulated materialization counters and every triple
// removed. Violations are repaired silently here; callers that want them
// reported instead use Materialize + ViolatedConstraints.
func (r *Reasoner) MaterializeWithRepairs() (MaterializeStats, []kg.Triple) {
	stats := r.MaterializeSemiNaive()
	var removed []kg.Triple
	for pass := 0; pass < maxRepairPasses; pass++ {
		repair := r.Repair()
		if len(repair) == 0 {
			break
		}
		for _, t := range repair {
			r.RemoveTriple(t)
		}
		removed = append(removed, repair...)

		more := r.MaterializeSemiNaive()
		stats.Rounds += more.Rounds
		stats.NewFactsPerRound = append(stats.NewFactsPerRound, more.NewFactsPerRound...)
		stats.TotalDerived += more.TotalDerived
	}
	return stats, removed
}

// QueryWithRepairs evaluates pat against the current index as usual, but
// first computes (without persisting) the repair set and excludes any
// triple that the repair would remove. The store itself is untouched:
// callers get consistent answers without committing to a destructive
// repair.
func (r *Reasoner) QueryWithRepairs(pat kg.TriplePattern) []kg.Triple {
	repair := r.Repair()
	excluded := make(map[kg.Triple]bool, len(repair))
	for _, t := range repair {
		excluded[t] = true
	}

	var out []kg.Triple
	for _, t := range r.QueryPattern(pat) {
		if !excluded[t] {
			out = append(out, t)
		}
	}
	return out
}
