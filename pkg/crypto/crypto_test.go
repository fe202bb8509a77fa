package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentHashKnownVector(t *testing.T) {
	// sha256("abc")
	require.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", ContentHash("a", "b", "c"))
}

func TestContentHashDeterministic(t *testing.T) {
	first := ContentHash("Blue Vase", "Hand thrown stoneware", "aGVsbG8=")
	second := ContentHash("Blue Vase", "Hand thrown stoneware", "aGVsbG8=")
	require.Equal(t, first, second)
	require.Len(t, first, 64)
}

func TestContentHashSensitiveToEachField(t *testing.T) {
	base := ContentHash("Blue Vase", "Hand thrown stoneware", "aGVsbG8=")

	require.NotEqual(t, base, ContentHash("Blue Vasf", "Hand thrown stoneware", "aGVsbG8="))
	require.NotEqual(t, base, ContentHash("Blue Vase", "Hand thrown stonewarE", "aGVsbG8="))
	require.NotEqual(t, base, ContentHash("Blue Vase", "Hand thrown stoneware", "aGVsbG9="))
}

func TestContentHashBoundaryAmbiguity(t *testing.T) {
	require.Equal(t, ContentHash("ab", "c", ""), ContentHash("a", "bc", ""))
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(32)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = GenerateToken(0)
	require.Error(t, err)
}

func TestGenerateDevelopmentKey(t *testing.T) {
	key, err := GenerateDevelopmentKey(32)
	require.NoError(t, err)
	require.True(t, IsDevelopmentKey(key))
	require.False(t, IsDevelopmentKey("prod-signing-key"))
}
