package kg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTripleOrderingIsLexicographic(t *testing.T) {
	a := NewTriple(1, 2, 3)
	b := NewTriple(1, 2, 4)
	c := NewTriple(1, 3, 0)
	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(a))
}

func TestPatternMatchesBoundPositions(t *testing.T) {
	pat := NewPattern(Const(1), Var("p"), Const(3))
	assert.True(t, pat.Matches(NewTriple(1, 99, 3)))
	assert.False(t, pat.Matches(NewTriple(1, 99, 4)))
	assert.Equal(t, 2, pat.BoundCount())
}

func TestNullTripleSentinel(t *testing.T) {
	assert.True(t, NewTriple(0, 0, 0).IsNull())
	assert.False(t, NewTriple(0, 0, 1).IsNull())
}
