package reasoner

import (
	"fmt"

	"github.com/wbrown/reasongraph/kg"
	"github.com/wbrown/reasongraph/kg/index"
	"github.com/wbrown/reasongraph/kg/internal/join"
)

// Level is one of the four ordered reasoning levels, each carrying a fixed
// certainty score.
type Level int

const (
	Base Level = iota
	Deductive
	Abductive
	MetaReasoning
)

// Certainty returns the level's fixed confidence score.
func (l Level) Certainty() float64 {
	switch l {
	case Base:
		return 1.0
	case Deductive:
		return 0.9
	case Abductive:
		return 0.6
	case MetaReasoning:
		return 0.4
	default:
		return 0
	}
}

// String renders the level's name for debugging/CLI output.
func (l Level) String() string {
	switch l {
	case Base:
		return "Base"
	case Deductive:
		return "Deductive"
	case Abductive:
		return "Abductive"
	case MetaReasoning:
		return "MetaReasoning"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// CrossLevelRule is a rule whose premise may draw facts from several
// declared dependency levels and whose conclusions are written into a
// single target level, rather than the level that owns the rule.
type CrossLevelRule struct {
	Rule
	DependsOn []Level
	Target    Level
}

// Hierarchy owns one Reasoner per level, all sharing a single dictionary so
// entity ids are comparable across levels, plus the cross-level rules that
// let a higher level consume a lower level's derived facts.
type Hierarchy struct {
	dict   *kg.Dictionary
	levels map[Level]*Reasoner
	cfg    Config
	cross  []CrossLevelRule
}

// NewHierarchy creates a Hierarchy with an empty Reasoner at each of the
// four levels, all sharing one dictionary.
func NewHierarchy(cfg Config) *Hierarchy {
	dict := kg.NewDictionary()
	h := &Hierarchy{
		dict: dict,
		cfg:  cfg,
		levels: map[Level]*Reasoner{
			Base:          NewWithDictionary(cfg, dict),
			Deductive:     NewWithDictionary(cfg, dict),
			Abductive:     NewWithDictionary(cfg, dict),
			MetaReasoning: NewWithDictionary(cfg, dict),
		},
	}
	return h
}

// Level returns the Reasoner owning the given level's facts and rules.
func (h *Hierarchy) Level(l Level) *Reasoner { return h.levels[l] }

// Dictionary returns the dictionary shared across every level.
func (h *Hierarchy) Dictionary() *kg.Dictionary { return h.dict }

// AddCrossLevelRule validates and registers a cross-level rule. As for a
// plain Rule, range-restriction is checked against the union of the
// premise's own variables only — DependsOn and Target don't affect
// variable scope, just which levels are read from and written to.
func (h *Hierarchy) AddCrossLevelRule(r CrossLevelRule) (int, error) {
	if err := r.Rule.validate(); err != nil {
		return -1, err
	}
	if len(r.DependsOn) == 0 {
		return -1, fmt.Errorf("cross-level rule must declare at least one dependency level")
	}
	id := len(h.cross)
	r.Rule.id = id
	h.cross = append(h.cross, r)
	return id, nil
}

// Propagate evaluates every cross-level rule once against the current
// union of its dependency levels' facts and inserts newly-derived
// conclusions into each rule's target level. It returns per-rule counts
// of facts inserted, keyed by cross-level rule id.
func (h *Hierarchy) Propagate() map[int]int {
	added := make(map[int]int, len(h.cross))
	for _, rule := range h.cross {
		combined := h.unionLevels(rule.DependsOn)
		bindings := join.StepAll(combined, rule.Premise, nil)

		target := h.levels[rule.Target]
		count := 0
		for _, b := range bindings {
			if !target.passesFilters(rule.Filters, b) {
				continue
			}
			for _, concl := range rule.Conclusion {
				t, ok := concl.Substitute(b)
				if ok && target.InsertTriple(t) {
					count++
				}
			}
		}
		added[rule.ID()] = count
	}
	return added
}

// unionLevels builds a throwaway index over the union of the given
// levels' current facts, used as the read side of a Propagate pass.
func (h *Hierarchy) unionLevels(levels []Level) *index.UnifiedIndex {
	combined := index.NewUnifiedIndex()
	for _, l := range levels {
		r, ok := h.levels[l]
		if !ok {
			continue
		}
		for _, t := range r.Index().Snapshot() {
			combined.Insert(t)
		}
	}
	return combined
}
