package stringpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternPointerEquality(t *testing.T) {
	p := New()
	a := p.Intern("abc123")
	b := p.Intern("abc123")
	assert.Same(t, a, b)
	assert.Equal(t, 1, p.Len())
}

func TestInternDistinctValues(t *testing.T) {
	p := New()
	a := p.Intern("foo")
	b := p.Intern("bar")
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, p.Len())
}

func TestLookupMissing(t *testing.T) {
	p := New()
	_, ok := p.Lookup("nope")
	assert.False(t, ok)
}

func TestCloneSharesHandles(t *testing.T) {
	p := New()
	a := p.Intern("shared")
	c := p.Clone()
	b, ok := c.Lookup("shared")
	require.True(t, ok)
	assert.Same(t, a, b)

	c.Intern("only-in-clone")
	_, ok = p.Lookup("only-in-clone")
	assert.False(t, ok, "mutating the clone must not affect the source")
}

func TestPruneDropsUnreachable(t *testing.T) {
	p := New()
	keepMe := p.Intern("keep")
	p.Intern("drop-me")

	p.Prune(func(yield func(*Handle) bool) {
		yield(keepMe)
	})

	assert.Equal(t, 1, p.Len())
	_, ok := p.Lookup("keep")
	assert.True(t, ok)
	_, ok = p.Lookup("drop-me")
	assert.False(t, ok)
}

func TestPruneKeepsAllWhenAllReachable(t *testing.T) {
	p := New()
	a := p.Intern("a")
	b := p.Intern("b")

	p.Prune(func(yield func(*Handle) bool) {
		yield(a)
		yield(b)
	})

	assert.Equal(t, 2, p.Len())
}
