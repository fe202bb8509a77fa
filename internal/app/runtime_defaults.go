package app

import (
	"fmt"
	"strings"

	"github.com/charlesng35/craftid/pkg/crypto"
)

const signingKeyBytes = 48

// ApplyRuntimeDefaults ensures critical secrets are populated even when no configuration file is supplied.
// Production configurations are left untouched so that a missing key fails startup instead of being replaced.
// It returns a map describing which keys were generated so callers can log the event without exposing values.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)
	if cfg.Server.IsProduction() {
		return generated, nil
	}

	if strings.TrimSpace(cfg.CraftID.SigningKey) == "" {
		key, err := crypto.GenerateDevelopmentKey(signingKeyBytes)
		if err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
		cfg.CraftID.SigningKey = key
		generated["craftid.signing_key"] = true
	}

	return generated, nil
}
