package httpapi

import (
	"fmt"
	"strings"

	"github.com/wbrown/reasongraph/kg"
)

// PatternSpec is the wire shape of a triple pattern: each field is
// either a variable (prefixed "?") or a constant string encoded through
// the server's dictionary.
type PatternSpec struct {
	S string `json:"s"`
	P string `json:"p"`
	O string `json:"o"`
}

// FilterSpec is the wire shape of a kg.FilterCondition.
type FilterSpec struct {
	Variable string      `json:"variable"`
	Operator kg.FilterOp `json:"operator"`
	Value    string      `json:"value"`
}

// RuleSpec is the wire shape of a reasoner.Rule, with patterns expressed
// as PatternSpecs instead of pre-encoded kg.TriplePattern.
type RuleSpec struct {
	Premise    []PatternSpec `json:"premise"`
	Filters    []FilterSpec  `json:"filters"`
	Conclusion []PatternSpec `json:"conclusion"`
}

func parseTerm(dict *kg.Dictionary, s string) kg.Term {
	if strings.HasPrefix(s, "?") {
		return kg.Var(strings.TrimPrefix(s, "?"))
	}
	return kg.Const(dict.Encode(s))
}

func parsePattern(dict *kg.Dictionary, p PatternSpec) kg.TriplePattern {
	return kg.NewPattern(parseTerm(dict, p.S), parseTerm(dict, p.P), parseTerm(dict, p.O))
}

func parsePatterns(dict *kg.Dictionary, ps []PatternSpec) []kg.TriplePattern {
	out := make([]kg.TriplePattern, len(ps))
	for i, p := range ps {
		out[i] = parsePattern(dict, p)
	}
	return out
}

func parseFilters(fs []FilterSpec) []kg.FilterCondition {
	out := make([]kg.FilterCondition, len(fs))
	for i, f := range fs {
		out[i] = kg.NewFilter(f.Variable, f.Operator, f.Value)
	}
	return out
}

func validateOperator(op kg.FilterOp) error {
	switch op {
	case kg.OpEq, kg.OpNeq, kg.OpLt, kg.OpGt, kg.OpLte, kg.OpGte:
		return nil
	default:
		return fmt.Errorf("unknown filter operator %q", op)
	}
}
