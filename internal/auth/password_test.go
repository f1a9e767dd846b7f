package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("testpass123")
	require.NoError(t, err)
	assert.NotContains(t, hash, "testpass123")

	assert.True(t, CheckPassword("testpass123", hash))
	assert.False(t, CheckPassword("testpass124", hash))
	assert.False(t, CheckPassword("testpass123", "not-a-hash"))

	other, err := HashPassword("testpass123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salt deve variar")

	_, err = HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestGenerateKey(t *testing.T) {
	a, err := GenerateKey()
	require.NoError(t, err)
	b, err := GenerateKey()
	require.NoError(t, err)

	assert.Len(t, a, KeyLength)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "authtoken:"+HashKey(a), TokenCacheKey(a))
}
