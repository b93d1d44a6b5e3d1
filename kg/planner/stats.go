package planner

import (
	"sync"

	"github.com/wbrown/reasongraph/kg"
	"github.com/wbrown/reasongraph/kg/index"
)

// maxSampleSize bounds how many triples BuildStatistics inspects directly;
// beyond it, stats are built from a strided subsample and scaled back up.
const maxSampleSize = 100_000

// Statistics holds per-position cardinality counts and a selectivity
// cache, guarded by one RWMutex since lookups vastly outnumber the single
// rebuild that produces them.
type Statistics struct {
	mu sync.RWMutex

	total         int
	subjectCard   map[uint32]int
	predicateCard map[uint32]int
	objectCard    map[uint32]int
	selectivity   map[uint32]float64
}

// BuildStatistics scans idx (sampling if it exceeds maxSampleSize) and
// returns a fresh Statistics snapshot. Re-run after bulk loads or large
// materialization rounds; the counts never change after the build, only
// the selectivity cache fills in lazily.
func BuildStatistics(idx *index.UnifiedIndex) *Statistics {
	all := idx.Snapshot()
	total := len(all)

	stride := 1
	if total > maxSampleSize {
		stride = (total + maxSampleSize - 1) / maxSampleSize
	}

	s := &Statistics{
		subjectCard:   make(map[uint32]int),
		predicateCard: make(map[uint32]int),
		objectCard:    make(map[uint32]int),
		selectivity:   make(map[uint32]float64),
		total:         total,
	}

	sampled := 0
	for i := 0; i < len(all); i += stride {
		t := all[i]
		s.subjectCard[t.S]++
		s.predicateCard[t.P]++
		s.objectCard[t.O]++
		sampled++
	}

	if sampled > 0 && stride > 1 {
		scale := float64(total) / float64(sampled)
		scaleCounts(s.subjectCard, scale)
		scaleCounts(s.predicateCard, scale)
		scaleCounts(s.objectCard, scale)
	}

	return s
}

func scaleCounts(m map[uint32]int, scale float64) {
	for k, v := range m {
		scaled := int(float64(v) * scale)
		if scaled < 1 {
			scaled = 1
		}
		m[k] = scaled
	}
}

// Total returns the store's total triple count as of the last build.
func (s *Statistics) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// SubjectCardinality returns the estimated number of triples with subject id.
func (s *Statistics) SubjectCardinality(id uint32) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subjectCard[id]
}

// PredicateCardinality returns the estimated number of triples with predicate id.
func (s *Statistics) PredicateCardinality(id uint32) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.predicateCard[id]
}

// ObjectCardinality returns the estimated number of triples with object id.
func (s *Statistics) ObjectCardinality(id uint32) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objectCard[id]
}

// Selectivity returns the fraction of the store a given predicate's
// triples represent, caching the result. Unknown predicates default to
// 0.1.
func (s *Statistics) Selectivity(predicate uint32) float64 {
	s.mu.RLock()
	if v, ok := s.selectivity[predicate]; ok {
		s.mu.RUnlock()
		return v
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.selectivity[predicate]; ok {
		return v
	}
	if s.total == 0 {
		return 0.1
	}
	card, ok := s.predicateCard[predicate]
	if !ok {
		return 0.1
	}
	sel := float64(card) / float64(s.total)
	s.selectivity[predicate] = sel
	return sel
}

// EstimateCardinality estimates the number of triples matching pat, using
// exact position counts for 0 or 1 bound positions, the minimum of the
// bound positions' counts for 2, and 1 for a fully-bound pattern.
func (s *Statistics) EstimateCardinality(pat kg.TriplePattern) int {
	switch pat.BoundCount() {
	case 3:
		return 1
	case 2:
		var cards []int
		if pat.S.IsConstant() {
			cards = append(cards, s.SubjectCardinality(pat.S.ID()))
		}
		if pat.P.IsConstant() {
			cards = append(cards, s.PredicateCardinality(pat.P.ID()))
		}
		if pat.O.IsConstant() {
			cards = append(cards, s.ObjectCardinality(pat.O.ID()))
		}
		return minInt(cards)
	case 1:
		switch {
		case pat.S.IsConstant():
			return s.SubjectCardinality(pat.S.ID())
		case pat.P.IsConstant():
			return s.PredicateCardinality(pat.P.ID())
		default:
			return s.ObjectCardinality(pat.O.ID())
		}
	default:
		return s.Total()
	}
}

func minInt(xs []int) int {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
