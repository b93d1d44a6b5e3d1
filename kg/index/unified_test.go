package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wbrown/reasongraph/kg"
)

func u32(v uint32) *uint32 { return &v }

func TestInsertIsObservable(t *testing.T) {
	idx := NewUnifiedIndex()
	tr := kg.NewTriple(1, 2, 3)
	assert.True(t, idx.Insert(tr))
	assert.True(t, idx.Contains(tr))
}

func TestInsertIsIdempotent(t *testing.T) {
	idx := NewUnifiedIndex()
	tr := kg.NewTriple(1, 2, 3)
	assert.True(t, idx.Insert(tr))
	assert.False(t, idx.Insert(tr))
	assert.Equal(t, 1, idx.Size())
}

func TestQueryMonotoneInUnbinding(t *testing.T) {
	idx := NewUnifiedIndex()
	idx.Insert(kg.NewTriple(1, 2, 3))
	idx.Insert(kg.NewTriple(1, 2, 4))

	full := idx.Query(u32(1), u32(2), u32(3))
	partial := idx.Query(u32(1), u32(2), nil)
	assert.Len(t, full, 1)
	assert.Len(t, partial, 2)
}

func TestQueryFullyUnboundEqualsSize(t *testing.T) {
	idx := NewUnifiedIndex()
	for i := uint32(0); i < 10; i++ {
		idx.Insert(kg.NewTriple(i, i, i))
	}
	all := idx.Query(nil, nil, nil)
	assert.Len(t, all, idx.Size())
}

func TestAllSixPermutationsAgree(t *testing.T) {
	idx := NewUnifiedIndex()
	triples := []kg.Triple{
		kg.NewTriple(1, 10, 2),
		kg.NewTriple(2, 10, 3),
		kg.NewTriple(1, 11, 3),
	}
	for _, tr := range triples {
		idx.Insert(tr)
	}

	bySubject := idx.Query(u32(1), nil, nil)
	byPredicate := idx.Query(nil, u32(10), nil)
	byObject := idx.Query(nil, nil, u32(3))

	assert.ElementsMatch(t, []kg.Triple{kg.NewTriple(1, 10, 2), kg.NewTriple(1, 11, 3)}, bySubject)
	assert.ElementsMatch(t, []kg.Triple{kg.NewTriple(1, 10, 2), kg.NewTriple(2, 10, 3)}, byPredicate)
	assert.ElementsMatch(t, []kg.Triple{kg.NewTriple(2, 10, 3), kg.NewTriple(1, 11, 3)}, byObject)
}

func TestRemoveThenReinsert(t *testing.T) {
	idx := NewUnifiedIndex()
	tr := kg.NewTriple(5, 6, 7)
	idx.Insert(tr)
	assert.True(t, idx.Remove(tr))
	assert.False(t, idx.Contains(tr))
	assert.True(t, idx.Insert(tr))
	assert.True(t, idx.Contains(tr))
}

func TestEmptyStoreQueriesAreEmpty(t *testing.T) {
	idx := NewUnifiedIndex()
	assert.Empty(t, idx.Query(nil, nil, nil))
	assert.Empty(t, idx.Query(u32(1), nil, nil))
}

func TestBuildFromTriplesBulk(t *testing.T) {
	idx := NewUnifiedIndex()
	triples := []kg.Triple{kg.NewTriple(1, 2, 3), kg.NewTriple(4, 5, 6)}
	idx.BuildFromTriples(triples)
	assert.Equal(t, 2, idx.Size())
	for _, tr := range triples {
		assert.True(t, idx.Contains(tr))
	}
}

func TestMergeFromUnion(t *testing.T) {
	a := NewUnifiedIndex()
	a.Insert(kg.NewTriple(1, 2, 3))
	b := NewUnifiedIndex()
	b.Insert(kg.NewTriple(4, 5, 6))

	a.MergeFrom(b)
	assert.Equal(t, 2, a.Size())
}
