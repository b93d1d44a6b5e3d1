package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/wbrown/reasongraph/kg"
	"github.com/wbrown/reasongraph/kg/reasoner"
)

// The CLI's line grammar, deliberately smaller than a full surface syntax:
//
//	triple:  alice hasParent bob
//	pattern: ?x hasParent ?y        (tokens prefixed "?" are variables)
//	rule:    ?x hasParent ?y, ?y hasParent ?z => ?x hasGrandparent ?z
//	         ?x age ?a | ?a > 30 => ?x category adult
//	filter:  ?a > 30                (between "|" and "=>")
//
// Lines starting with "#" and blank lines are skipped.

// parseTerm maps a token to a variable ("?name") or a dictionary-encoded
// constant.
func parseTerm(dict *kg.Dictionary, tok string) kg.Term {
	if strings.HasPrefix(tok, "?") {
		return kg.Var(strings.TrimPrefix(tok, "?"))
	}
	return kg.Const(dict.Encode(tok))
}

// parsePattern parses a three-token triple pattern.
func parsePattern(dict *kg.Dictionary, s string) (kg.TriplePattern, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return kg.TriplePattern{}, fmt.Errorf("pattern %q: want 3 terms, got %d", s, len(fields))
	}
	return kg.NewPattern(
		parseTerm(dict, fields[0]),
		parseTerm(dict, fields[1]),
		parseTerm(dict, fields[2]),
	), nil
}

func parsePatternList(dict *kg.Dictionary, s string) ([]kg.TriplePattern, error) {
	var out []kg.TriplePattern
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pat, err := parsePattern(dict, part)
		if err != nil {
			return nil, err
		}
		out = append(out, pat)
	}
	return out, nil
}

// parseFilter parses "?var op value" into a FilterCondition.
func parseFilter(s string) (kg.FilterCondition, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return kg.FilterCondition{}, fmt.Errorf("filter %q: want '?var op value'", s)
	}
	if !strings.HasPrefix(fields[0], "?") {
		return kg.FilterCondition{}, fmt.Errorf("filter %q: left side must be a variable", s)
	}
	op := kg.FilterOp(fields[1])
	switch op {
	case kg.OpEq, kg.OpNeq, kg.OpLt, kg.OpGt, kg.OpLte, kg.OpGte:
	default:
		return kg.FilterCondition{}, fmt.Errorf("filter %q: unknown operator %q", s, fields[1])
	}
	return kg.NewFilter(strings.TrimPrefix(fields[0], "?"), op, fields[2]), nil
}

func parseFilterList(s string) ([]kg.FilterCondition, error) {
	var out []kg.FilterCondition
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := parseFilter(part)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// parseRule parses "premise[, premise...] [| filter[, filter...]] => conclusion[, ...]".
// A conclusion of the single word "false" marks an integrity constraint:
// the reserved (0,0,0) conclusion means the premise must never hold.
func parseRule(dict *kg.Dictionary, line string) (reasoner.Rule, error) {
	head, tail, found := strings.Cut(line, "=>")
	if !found {
		return reasoner.Rule{}, fmt.Errorf("rule %q: missing '=>'", line)
	}

	premisePart, filterPart, _ := strings.Cut(head, "|")

	premise, err := parsePatternList(dict, premisePart)
	if err != nil {
		return reasoner.Rule{}, err
	}
	if len(premise) == 0 {
		return reasoner.Rule{}, fmt.Errorf("rule %q: empty premise", line)
	}

	filters, err := parseFilterList(filterPart)
	if err != nil {
		return reasoner.Rule{}, err
	}

	var conclusion []kg.TriplePattern
	if strings.TrimSpace(tail) == "false" {
		bottom := kg.Const(kg.NullID)
		conclusion = []kg.TriplePattern{kg.NewPattern(bottom, bottom, bottom)}
	} else {
		conclusion, err = parsePatternList(dict, tail)
		if err != nil {
			return reasoner.Rule{}, err
		}
		if len(conclusion) == 0 {
			return reasoner.Rule{}, fmt.Errorf("rule %q: empty conclusion", line)
		}
	}

	return reasoner.Rule{Premise: premise, Filters: filters, Conclusion: conclusion}, nil
}

// eachLine calls fn for every non-blank, non-comment line of r, reporting
// errors with their 1-based line number.
func eachLine(r io.Reader, fn func(line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(line); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

// loadRules reads a rules file into r, returning how many rules were added.
func loadRules(r *reasoner.Reasoner, path string, open func(string) (io.ReadCloser, error)) (int, error) {
	f, err := open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	err = eachLine(f, func(line string) error {
		rule, err := parseRule(r.Dictionary(), line)
		if err != nil {
			return err
		}
		if _, err := r.AddRule(rule); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}
