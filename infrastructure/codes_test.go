package infrastructure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeGeneratorFormat(t *testing.T) {
	gen, err := NewCodeGenerator()
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		id := gen.RoomID()
		require.Len(t, id, RoomIDLength)
		for _, c := range id {
			assert.True(t, c >= '0' && c <= '9', "room id %q has non-digit", id)
		}

		secret := gen.RoomSecret()
		require.Len(t, secret, RoomSecretLength)
		for _, c := range secret {
			assert.True(t, strings.ContainsRune(RoomSecretAlphabet, c), "secret %q has %q", secret, c)
		}
		assert.NotContains(t, secret, "0")
		assert.NotContains(t, secret, "O")
		assert.NotContains(t, secret, "l")
		assert.NotContains(t, secret, "1")
	}
}

func TestCodeGeneratorSecretsAreMostlyUnique(t *testing.T) {
	gen, err := NewCodeGenerator()
	require.NoError(t, err)

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		seen[gen.RoomSecret()] = struct{}{}
	}
	// 55^7 possible secrets; a handful of collisions in 1000 draws would be a broken generator.
	assert.GreaterOrEqual(t, len(seen), 995)
}
