package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenGenerator_Generate(t *testing.T) {
	generator := NewTokenGenerator()

	tests := []struct {
		name   string
		prefix string
	}{
		{"live key", PrefixLive},
		{"test key", PrefixTest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plain, hash, err := generator.Generate(tt.prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(plain, tt.prefix))
			assert.Len(t, plain, len(tt.prefix)+64)
			assert.Len(t, hash, 64)
			assert.NotEqual(t, plain, hash)
			assert.True(t, generator.Verify(plain, hash))
		})
	}
}

func TestTokenGenerator_Uniqueness(t *testing.T) {
	generator := NewTokenGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		plain, _, err := generator.Generate(PrefixLive)
		require.NoError(t, err)
		require.False(t, seen[plain], "duplicate key generated")
		seen[plain] = true
	}
}

func TestTokenGenerator_Verify(t *testing.T) {
	generator := NewTokenGenerator()
	plain, hash, err := generator.Generate(PrefixLive)
	require.NoError(t, err)

	assert.True(t, generator.Verify(plain, hash))
	assert.False(t, generator.Verify(plain+"x", hash))
	assert.False(t, generator.Verify(plain, strings.Repeat("0", 64)))
	assert.Equal(t, hash, generator.Hash(plain))
}

func TestDisplayPrefix(t *testing.T) {
	assert.Equal(t, "lg_live_abcd", DisplayPrefix("lg_live_abcdef0123", PrefixLive))
	assert.Equal(t, "lg_li", DisplayPrefix("lg_li", PrefixLive))
}
