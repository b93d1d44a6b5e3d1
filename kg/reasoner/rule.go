package reasoner

import (
	"fmt"

	"github.com/wbrown/reasongraph/kg"
)

// Rule is a conjunctive premise plus filters producing conclusion triples
// for every satisfying binding. A premise with n patterns is an
// n-way join over the triple store.
type Rule struct {
	Premise    []kg.TriplePattern
	Filters    []kg.FilterCondition
	Conclusion []kg.TriplePattern

	// id is assigned by the Reasoner when the rule is added; it's the
	// index into Reasoner.ruleList and the value RuleIndex stores.
	id int
}

// ID returns the rule's index in its owning Reasoner's rule list.
func (r Rule) ID() int { return r.id }

// IsConstraint reports whether r is an integrity constraint: a rule whose
// conclusion is exactly the reserved (0,0,0) triple.
func (r Rule) IsConstraint() bool {
	for _, c := range r.Conclusion {
		if c.S.IsConstant() && c.P.IsConstant() && c.O.IsConstant() &&
			c.S.ID() == kg.NullID && c.P.ID() == kg.NullID && c.O.ID() == kg.NullID {
			return true
		}
	}
	return false
}

// validate checks range-restriction: every variable in the conclusion must
// appear in at least one premise pattern. Rules failing this check are
// rejected at AddRule and never reach the RuleIndex.
func (r Rule) validate() error {
	premiseVars := make(map[string]bool)
	for _, pat := range r.Premise {
		for _, v := range pat.Vars() {
			premiseVars[v] = true
		}
	}
	for _, pat := range r.Conclusion {
		for _, v := range pat.Vars() {
			if !premiseVars[v] {
				return fmt.Errorf("invalid pattern: conclusion variable %q not bound by any premise", v)
			}
		}
	}
	if len(r.Premise) == 0 {
		return fmt.Errorf("invalid pattern: rule has no premise")
	}
	return nil
}
