package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, TokenPrefix))
	assert.Len(t, a, len(TokenPrefix)+TokenLength*2)
	assert.True(t, IsValidTokenFormat(a))
	assert.NotEqual(t, a, b)
}

func TestHashVerify(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)
	hash, err := hashWithCost(token, bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, Verify(hash, token))

	other, err := GenerateToken()
	require.NoError(t, err)
	assert.False(t, Verify(hash, other))
	assert.False(t, Verify("", token))
	assert.False(t, Verify(hash, "garbage"))
}

func TestHashToken_RejectsMalformed(t *testing.T) {
	_, err := HashToken("rvz_sk_short")
	assert.Error(t, err)
}

func TestIsValidTokenFormat(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{TokenPrefix + strings.Repeat("ab", TokenLength), true},
		{TokenPrefix + strings.Repeat("zz", TokenLength), false},
		{"abc_sk_" + strings.Repeat("ab", TokenLength), false},
		{TokenPrefix + "abcd", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidTokenFormat(tt.token), tt.token)
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken("abc"))
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "rvz_sk_01234567****", MaskToken("rvz_sk_0123456789abcdef"))
	assert.Equal(t, "****", MaskToken("short"))
}
