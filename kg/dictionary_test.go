package kg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictionaryEncodeIsIdempotent(t *testing.T) {
	d := NewDictionary()
	id1 := d.Encode("alice")
	id2 := d.Encode("alice")
	assert.Equal(t, id1, id2)
}

func TestDictionaryRoundTrip(t *testing.T) {
	d := NewDictionary()
	id := d.Encode("bob")
	s, ok := d.Decode(id)
	require.True(t, ok)
	assert.Equal(t, "bob", s)
}

func TestDictionaryReservesZero(t *testing.T) {
	d := NewDictionary()
	_, ok := d.Decode(NullID)
	assert.False(t, ok)
	assert.NotEqual(t, NullID, d.Encode("x"))
}

func TestDictionaryUnknownTermDecode(t *testing.T) {
	d := NewDictionary()
	_, ok := d.Decode(9999)
	assert.False(t, ok)
}

func TestDictionaryAssignsSequentialIDs(t *testing.T) {
	d := NewDictionary()
	first := d.Encode("a")
	second := d.Encode("b")
	assert.Equal(t, first+1, second)
}
