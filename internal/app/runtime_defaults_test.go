package app

import (
	"strings"
	"testing"

	"github.com/charlesng35/craftid/pkg/crypto"
)

func TestApplyRuntimeDefaultsGeneratesDevelopmentKey(t *testing.T) {
	cfg := &Config{}

	generated, err := ApplyRuntimeDefaults(cfg)
	if err != nil {
		t.Fatalf("ApplyRuntimeDefaults returned error: %v", err)
	}

	if !crypto.IsDevelopmentKey(cfg.CraftID.SigningKey) {
		t.Fatalf("expected development signing key, got %q", cfg.CraftID.SigningKey)
	}
	if !generated["craftid.signing_key"] {
		t.Fatalf("expected generated map to include signing key: %#v", generated)
	}
}

func TestApplyRuntimeDefaultsPreservesExistingKey(t *testing.T) {
	cfg := &Config{}
	cfg.CraftID.SigningKey = strings.Repeat("a", 40)

	generated, err := ApplyRuntimeDefaults(cfg)
	if err != nil {
		t.Fatalf("ApplyRuntimeDefaults returned error: %v", err)
	}

	if len(generated) != 0 {
		t.Fatalf("expected no keys generated, got %#v", generated)
	}
	if cfg.CraftID.SigningKey != strings.Repeat("a", 40) {
		t.Fatal("expected configured key to be kept")
	}
}

func TestApplyRuntimeDefaultsSkipsProduction(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Environment = "Production"

	generated, err := ApplyRuntimeDefaults(cfg)
	if err != nil {
		t.Fatalf("ApplyRuntimeDefaults returned error: %v", err)
	}
	if len(generated) != 0 || cfg.CraftID.SigningKey != "" {
		t.Fatalf("expected production key to remain empty, got %q", cfg.CraftID.SigningKey)
	}
}

func TestApplyRuntimeDefaultsNilConfig(t *testing.T) {
	_, err := ApplyRuntimeDefaults(nil)
	if err == nil || !strings.Contains(err.Error(), "config is nil") {
		t.Fatalf("expected nil config error, got %v", err)
	}
}
