package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenPrefix marks repoviz API tokens.
	TokenPrefix = "rvz_sk_" // #nosec G101 //nolint:gosec // prefix pattern, not a credential

	// TokenLength is the random part of a token in bytes, hex encoded.
	TokenLength = 32

	bcryptCost = 12
)

// GenerateToken returns a new API token: rvz_sk_<64 hex chars>.
func GenerateToken() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return TokenPrefix + hex.EncodeToString(b), nil
}

// HashToken creates the bcrypt hash stored in server.tokenHash.
func HashToken(token string) (string, error) {
	return hashWithCost(token, bcryptCost)
}

func hashWithCost(token string, cost int) (string, error) {
	if !IsValidTokenFormat(token) {
		return "", fmt.Errorf("hash token: malformed token")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimPrefix(token, TokenPrefix)), cost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether token matches hash.
func Verify(hash, token string) bool {
	if hash == "" || !IsValidTokenFormat(token) {
		return false
	}
	secret := strings.TrimPrefix(token, TokenPrefix)
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// IsValidTokenFormat checks the prefix and the hex body length.
func IsValidTokenFormat(token string) bool {
	secret, ok := strings.CutPrefix(token, TokenPrefix)
	if !ok || len(secret) != TokenLength*2 {
		return false
	}
	_, err := hex.DecodeString(secret)
	return err == nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// MaskToken shortens a token for display: rvz_sk_a1b2c3d4****
func MaskToken(token string) string {
	if len(token) < len(TokenPrefix)+8 {
		return "****"
	}
	return token[:len(TokenPrefix)+8] + "****"
}
