package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(RefreshTokenSize)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	token2, err := GenerateToken(RefreshTokenSize)
	require.NoError(t, err)
	require.NotEqual(t, token, token2, "tokens should be unique")

	// 32 raw bytes encode to 43 base64url chars
	require.Len(t, token, 43)
}

func TestGenerateToken_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)
	}
}

func TestFingerprintToken(t *testing.T) {
	fp1a := FingerprintToken("token-1")
	fp1b := FingerprintToken("token-1")
	fp2 := FingerprintToken("token-2")

	require.Equal(t, fp1a, fp1b, "fingerprint should be deterministic")
	require.NotEqual(t, fp1a, fp2)
	require.Len(t, fp1a, 43, "SHA-256 base64url should be 43 chars")
}
