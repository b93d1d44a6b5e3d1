// Package reasoner implements the L2 layer of the knowledge graph: the
// Reasoner that owns the dictionary, the triple index, the rule index, the
// rule list, and integrity constraints, and exposes insertion/deletion,
// pattern query, forward-chain materialization, and backward-chain query.
package reasoner

import (
	"fmt"
	"sync"

	"github.com/wbrown/reasongraph/kg"
	"github.com/wbrown/reasongraph/kg/index"
	"github.com/wbrown/reasongraph/kg/internal/workerpool"
)

// Reasoner ties the store together: the dictionary grows monotonically,
// triples are added individually or in bulk, rules are added before or
// between materialization calls, and materialization may run repeatedly —
// it is idempotent until new facts or rules arrive.
type Reasoner struct {
	mu sync.RWMutex

	dict  *kg.Dictionary
	index *index.UnifiedIndex
	tbox  *index.UnifiedIndex
	rules *index.RuleIndex
	cfg   Config

	ruleList    []Rule
	constraints []int // indices into ruleList whose conclusion is (0,0,0)

	pool *workerpool.Pool
}

// New creates an empty Reasoner with its own dictionary.
func New(cfg Config) *Reasoner {
	return NewWithDictionary(cfg, kg.NewDictionary())
}

// NewWithDictionary creates an empty Reasoner that encodes terms through an
// existing, possibly shared, dictionary. The Hierarchy uses this to give
// every level its own fact/rule store while keeping entity ids comparable
// across levels.
func NewWithDictionary(cfg Config, dict *kg.Dictionary) *Reasoner {
	return &Reasoner{
		dict:  dict,
		index: index.NewUnifiedIndex(),
		tbox:  index.NewUnifiedIndex(),
		rules: index.NewRuleIndex(),
		cfg:   cfg,
		pool:  workerpool.New(cfg.WorkerCount),
	}
}

// Dictionary exposes the reasoner's dictionary, e.g. for loaders that need
// to encode terms directly.
func (r *Reasoner) Dictionary() *kg.Dictionary { return r.dict }

// AddABoxTriple encodes (s, p, o) through the dictionary and inserts the
// resulting instance-level triple, returning it.
func (r *Reasoner) AddABoxTriple(s, p, o string) kg.Triple {
	t := r.dict.EncodeTriple(s, p, o)
	r.InsertTriple(t)
	return t
}

// AddTBoxTriple encodes (s, p, o) and records it as a schema-level
// assertion. TBox triples live beside the ABox: rules and queries over
// the instance data never see them, and materialization leaves them
// untouched.
func (r *Reasoner) AddTBoxTriple(s, p, o string) kg.Triple {
	t := r.dict.EncodeTriple(s, p, o)
	r.mu.Lock()
	r.tbox.Insert(t)
	r.mu.Unlock()
	return t
}

// QueryTBox returns every schema-level triple matching the given pattern
// (nil = unbound).
func (r *Reasoner) QueryTBox(s, p, o *uint32) []kg.Triple {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tbox.Query(s, p, o)
}

// InsertTriple adds t to the index. Returns whether it was new. If
// Config.RepairOnFire is set, a newly-violated constraint is repaired
// immediately rather than left for a caller to notice.
func (r *Reasoner) InsertTriple(t kg.Triple) bool {
	r.mu.Lock()
	isNew := r.index.Insert(t)
	r.mu.Unlock()

	if isNew && r.cfg.RepairOnFire {
		for _, bad := range r.Repair() {
			r.RemoveTriple(bad)
		}
	}
	return isNew
}

// InsertTriples bulk-inserts under one lock by rebuilding the index from
// the existing triples plus ts via BuildFromTriples. The rebuild re-inserts
// every old and new triple into all six permutations one at a time, and
// RepairOnFire is not applied.
func (r *Reasoner) InsertTriples(ts []kg.Triple) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.index.Snapshot()
	r.index.BuildFromTriples(append(existing, ts...))
}

// RemoveTriple deletes t from the index. Returns whether it was present.
func (r *Reasoner) RemoveTriple(t kg.Triple) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index.Remove(t)
}

// Query returns every triple matching the given pattern (nil = unbound).
func (r *Reasoner) Query(s, p, o *uint32) []kg.Triple {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Query(s, p, o)
}

// QueryPattern is the kg.TriplePattern-typed form of Query.
func (r *Reasoner) QueryPattern(pat kg.TriplePattern) []kg.Triple {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.QueryPattern(pat)
}

// Size returns the number of triples currently in the index.
func (r *Reasoner) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Size()
}

// Index exposes the underlying UnifiedIndex for collaborators (optimizer
// statistics, persistence snapshotting) that need direct access.
func (r *Reasoner) Index() *index.UnifiedIndex { return r.index }

// Rules returns the reasoner's current rule list. Callers must not mutate
// the returned slice's rules directly; use AddRule.
func (r *Reasoner) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Rule, len(r.ruleList))
	copy(out, r.ruleList)
	return out
}

// AddRule validates rule for range-restriction, rejecting it before it
// ever reaches the RuleIndex, then registers its premises there.
func (r *Reasoner) AddRule(rule Rule) (int, error) {
	if err := rule.validate(); err != nil {
		return -1, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := len(r.ruleList)
	rule.id = id
	r.ruleList = append(r.ruleList, rule)
	for _, pat := range rule.Premise {
		r.rules.RegisterPremise(id, pat)
	}
	if rule.IsConstraint() {
		r.constraints = append(r.constraints, id)
	}
	return id, nil
}

// String implements fmt.Stringer for debugging/logging.
func (r *Reasoner) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("Reasoner{facts=%d, rules=%d, constraints=%d}",
		r.index.Size(), len(r.ruleList), len(r.constraints))
}
