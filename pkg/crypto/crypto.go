package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

// ContentHash returns the hex encoded SHA-256 digest of the parts joined with no
// separator. Adjacent boundaries are not disambiguated: ("ab", "c") and ("a", "bc")
// hash identically.
func ContentHash(parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		_, _ = h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateToken returns a random URL-safe token of the requested byte length.
func GenerateToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("crypto: token length must be positive")
	}
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// GenerateDevelopmentKey returns a random signing key carrying the development prefix.
func GenerateDevelopmentKey(length int) (string, error) {
	token, err := GenerateToken(length)
	if err != nil {
		return "", err
	}
	return DevelopmentKeyPrefix + token, nil
}

// DevelopmentKeyPrefix marks keys that were generated for local use only.
const DevelopmentKeyPrefix = "dev-"

// IsDevelopmentKey reports whether key was produced by GenerateDevelopmentKey.
func IsDevelopmentKey(key string) bool {
	return strings.HasPrefix(strings.TrimSpace(key), DevelopmentKeyPrefix)
}
