package hashindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeHashPrefixDeterministic(t *testing.T) {
	a := ComputeHashPrefix("dQw4w9WgXcQ")
	b := ComputeHashPrefix("dQw4w9WgXcQ")
	assert.Equal(t, a, b)
}

func TestComputeHashPrefixDiffersAcrossInputs(t *testing.T) {
	a := ComputeHashPrefix("videoA")
	b := ComputeHashPrefix("videoB")
	assert.NotEqual(t, a, b)
}

func TestHashPrefixOfPrefersHashedVideoID(t *testing.T) {
	got := HashPrefixOf("abcd1234567890", "ignored")
	assert.Equal(t, uint16(0xabcd), got)
}

func TestHashPrefixOfFallsBackOnMalformedHex(t *testing.T) {
	got := HashPrefixOf("zzzz", "videoA")
	assert.Equal(t, ComputeHashPrefix("videoA"), got)
}

func TestHashPrefixOfFallsBackOnShortField(t *testing.T) {
	got := HashPrefixOf("ab", "videoA")
	assert.Equal(t, ComputeHashPrefix("videoA"), got)
}
