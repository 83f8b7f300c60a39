package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashString_Deterministic(t *testing.T) {
	first := HashString("primary:member", "key")
	second := HashString("primary:member", "key")

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestHashString_KeyChangesSignature(t *testing.T) {
	assert.NotEqual(t,
		HashString("primary:member", "key-a"),
		HashString("primary:member", "key-b"),
	)
}

func TestVerifyHashString(t *testing.T) {
	signature := HashString("primary:member", "key")

	assert.True(t, VerifyHashString("primary:member", signature, "key"))
	assert.False(t, VerifyHashString("primary:other", signature, "key"))
	assert.False(t, VerifyHashString("primary:member", signature, "wrong-key"))
	assert.False(t, VerifyHashString("primary:member", "not-hex!", "key"))
	assert.False(t, VerifyHashString("primary:member", "", "key"))
}
