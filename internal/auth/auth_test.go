package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyMatchingSecret(t *testing.T) {
	assert.True(t, Verify("supersecret", "supersecret"))
}

func TestVerifyMismatch(t *testing.T) {
	assert.False(t, Verify("wrong", "supersecret"))
}

func TestVerifyEmptyProvided(t *testing.T) {
	assert.False(t, Verify("", "supersecret"))
}
