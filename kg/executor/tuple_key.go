package executor

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"

	"github.com/wbrown/reasongraph/kg"
)

// BindingKey is a hashable fingerprint of a binding's values at a fixed
// set of variables, used to group and dedup bindings without building a
// string per lookup: hash first, compare full values only on a collision.
// xxh3 is the same hash the planner already uses for its memo keys.
type BindingKey struct {
	hash   uint64
	values []uint32
}

// NewBindingKey builds a BindingKey from b's values at vars, in the
// order given — callers must pass vars in a stable order (e.g. sorted)
// for equal bindings to produce equal keys.
func NewBindingKey(b kg.Binding, vars []string) BindingKey {
	values := make([]uint32, len(vars))
	for i, v := range vars {
		values[i] = b[v]
	}
	return BindingKey{hash: hashValues(values), values: values}
}

func hashValues(values []uint32) uint64 {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint32(buf[i*4:], v)
	}
	return xxh3.Hash(buf)
}

// Equal reports whether two BindingKeys were built from the same values.
func (k BindingKey) Equal(other BindingKey) bool {
	if k.hash != other.hash || len(k.values) != len(other.values) {
		return false
	}
	for i := range k.values {
		if k.values[i] != other.values[i] {
			return false
		}
	}
	return true
}

type bindingBucketEntry struct {
	key  BindingKey
	rows []kg.Binding
}

// BindingKeyMap buckets rows by BindingKey.hash, resolving collisions by
// a short linear scan within the bucket.
type BindingKeyMap struct {
	buckets map[uint64][]bindingBucketEntry
}

// NewBindingKeyMap creates an empty BindingKeyMap.
func NewBindingKeyMap() *BindingKeyMap {
	return &BindingKeyMap{buckets: make(map[uint64][]bindingBucketEntry)}
}

// Add appends row under key, creating the bucket entry if this is the
// first row seen for that key.
func (m *BindingKeyMap) Add(key BindingKey, row kg.Binding) {
	bucket := m.buckets[key.hash]
	for i := range bucket {
		if bucket[i].key.Equal(key) {
			bucket[i].rows = append(bucket[i].rows, row)
			return
		}
	}
	m.buckets[key.hash] = append(bucket, bindingBucketEntry{key: key, rows: []kg.Binding{row}})
}

// Get returns the rows stored under key, if any.
func (m *BindingKeyMap) Get(key BindingKey) ([]kg.Binding, bool) {
	for _, e := range m.buckets[key.hash] {
		if e.key.Equal(key) {
			return e.rows, true
		}
	}
	return nil, false
}

// Len returns the number of distinct keys stored.
func (m *BindingKeyMap) Len() int {
	n := 0
	for _, bucket := range m.buckets {
		n += len(bucket)
	}
	return n
}
