package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charlesng35/craftid/pkg/crypto"
)

// MinSigningKeyBytes is the smallest signing key accepted in production.
const MinSigningKeyBytes = 32

// KeyByteLength returns the number of key bytes the credential signer will use.
// The signer takes the configured string verbatim as the HMAC secret.
func KeyByteLength(value string) int {
	return len([]byte(value))
}

// ValidateSigningKey checks the credential signing key. Production requires an
// operator supplied key of at least MinSigningKeyBytes; other environments only
// require a key to be present.
func ValidateSigningKey(key string, production bool) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("craftid.signing_key is required")
	}
	if !production {
		return nil
	}
	if crypto.IsDevelopmentKey(strings.TrimSpace(key)) {
		return errors.New("craftid.signing_key must not be a generated development key in production")
	}
	if length := KeyByteLength(key); length < MinSigningKeyBytes {
		return fmt.Errorf("craftid.signing_key must be at least %d bytes, got %d", MinSigningKeyBytes, length)
	}
	return nil
}
