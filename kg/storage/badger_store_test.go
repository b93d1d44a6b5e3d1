package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/reasongraph/kg"
)

func TestCheckpointThenRecoverReturnsSnapshot(t *testing.T) {
	store, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	triples := []kg.Triple{
		kg.NewTriple(1, 2, 3),
		kg.NewTriple(4, 5, 6),
	}
	meta, err := store.Checkpoint(triples)
	require.NoError(t, err)
	assert.Equal(t, 2, meta.NumTriples)
	assert.NotEmpty(t, meta.ID)

	recovered, err := store.Recover()
	require.NoError(t, err)
	assert.ElementsMatch(t, triples, recovered)
}

func TestWALReplaysOnTopOfCheckpoint(t *testing.T) {
	store, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	base := kg.NewTriple(1, 1, 1)
	_, err = store.Checkpoint([]kg.Triple{base})
	require.NoError(t, err)

	added := kg.NewTriple(2, 2, 2)
	require.NoError(t, store.AppendInsert(added))
	require.NoError(t, store.AppendDelete(base))

	recovered, err := store.Recover()
	require.NoError(t, err)
	assert.ElementsMatch(t, []kg.Triple{added}, recovered)
}

func TestCheckpointTruncatesPriorWAL(t *testing.T) {
	store, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	t1 := kg.NewTriple(1, 1, 1)
	t2 := kg.NewTriple(2, 2, 2)
	require.NoError(t, store.AppendInsert(t1))
	require.NoError(t, store.AppendInsert(t2))

	_, err = store.Checkpoint([]kg.Triple{t1, t2})
	require.NoError(t, err)

	t3 := kg.NewTriple(3, 3, 3)
	require.NoError(t, store.AppendInsert(t3))

	recovered, err := store.Recover()
	require.NoError(t, err)
	assert.ElementsMatch(t, []kg.Triple{t1, t2, t3}, recovered)
}

func TestWALLineRoundTrips(t *testing.T) {
	tr := kg.NewTriple(10, 20, 30)
	op, decoded, ok := parseWALLine(walLine(insertOp, tr))
	require.True(t, ok)
	assert.Equal(t, insertOp, op)
	assert.Equal(t, tr, decoded)
}
