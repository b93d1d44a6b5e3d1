// Package kg implements the core data model of the knowledge graph: the
// string dictionary, terms, triples, and triple patterns that every other
// layer (index, reasoner, planner, executor) is built on.
package kg

import (
	"sync"
)

// NullID is the reserved, impossible entity/attribute/value id. It is never
// assigned by Encode and doubles as the constraint-violation conclusion
// marker used by the reasoner: the triple (0,0,0) means "premise must be
// false".
const NullID uint32 = 0

// Dictionary is a bidirectional string<->uint32 map. Encode is idempotent:
// encoding the same string twice returns the same id. Ids are never reused,
// even after the dictionary has no remaining references to a string (there
// is no remove operation at all).
//
// Encode, Decode, Lookup and Size all take the same mutex, so every call is
// serialized: concurrent Decode calls do not run in parallel with each
// other or with Encode.
type Dictionary struct {
	mu     sync.Mutex
	fwd    map[string]uint32
	rev    []string // rev[id-1] == the string for id, since id 0 is reserved
	nextID uint32
}

// NewDictionary creates an empty dictionary. Id 0 is reserved and never
// assigned by Encode.
func NewDictionary() *Dictionary {
	return &Dictionary{
		fwd:    make(map[string]uint32),
		rev:    make([]string, 0, 1024),
		nextID: 1,
	}
}

// Encode returns the existing id for s if present, otherwise assigns the
// next sequential id (starting at 1), records both directions, and returns
// the new id.
func (d *Dictionary) Encode(s string) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.fwd[s]; ok {
		return id
	}
	id := d.nextID
	d.nextID++
	if d.nextID == 0 {
		panic("dictionary: id space exhausted")
	}
	d.fwd[s] = id
	d.rev = append(d.rev, s)
	return id
}

// Decode returns the string for id, or ("", false) if id was never
// assigned by Encode (including id 0, the reserved sentinel).
func (d *Dictionary) Decode(id uint32) (string, bool) {
	if id == NullID {
		return "", false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := int(id) - 1
	if idx < 0 || idx >= len(d.rev) {
		return "", false
	}
	return d.rev[idx], true
}

// Lookup returns the id for s without assigning one if absent.
func (d *Dictionary) Lookup(s string) (uint32, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.fwd[s]
	return id, ok
}

// Size returns the number of distinct strings ever encoded.
func (d *Dictionary) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rev)
}

// EncodeTriple encodes three strings into a Triple. Each string goes
// through its own Encode call, so the three encodes are not one atomic step.
func (d *Dictionary) EncodeTriple(s, p, o string) Triple {
	return Triple{S: d.Encode(s), P: d.Encode(p), O: d.Encode(o)}
}

// DecodeTriple decodes a Triple back to its three strings. Returns false if
// any position cannot be decoded.
func (d *Dictionary) DecodeTriple(t Triple) (s, p, o string, ok bool) {
	s, ok1 := d.Decode(t.S)
	p, ok2 := d.Decode(t.P)
	o, ok3 := d.Decode(t.O)
	return s, p, o, ok1 && ok2 && ok3
}
