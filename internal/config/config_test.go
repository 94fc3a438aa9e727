package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.TurnUsernameTTL.Seconds() != 3600 {
		t.Errorf("turn username ttl = %v, want 3600s", cfg.TurnUsernameTTL)
	}
	if cfg.PushEnabled() {
		t.Error("expected push disabled by default")
	}
	if cfg.TLSEnabled() {
		t.Error("expected TLS disabled by default")
	}
}

func TestLoadSplitsCSVLists(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TURN_URLS", "turn:turn1.example:3478,turn:turn2.example:3478")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Allowed) != 2 || cfg.Allowed[0] != "https://a.example" || cfg.Allowed[1] != "https://b.example" {
		t.Errorf("got allowed origins %v", cfg.Allowed)
	}
	if len(cfg.TurnURLs) != 2 {
		t.Errorf("got turn urls %v", cfg.TurnURLs)
	}
}

func TestVapidEnabledRequiresBothKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("VAPID_PUBLIC_KEY", "pub")
	cfg, _ := Load()
	if cfg.VapidEnabled() {
		t.Error("expected vapid disabled with only a public key")
	}
	t.Setenv("VAPID_PRIVATE_KEY", "priv")
	cfg, _ = Load()
	if !cfg.VapidEnabled() {
		t.Error("expected vapid enabled with both keys set")
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "HOST", "PUBLIC_DIR", "ALLOWED_ORIGINS", "TURN_URLS", "TURN_SECRET",
		"TURN_USERNAME_TTL_SECONDS", "TURN_RELAY_MIN_PORT", "TURN_RELAY_MAX_PORT",
		"TLS_KEY_PATH", "TLS_CERT_PATH", "VAPID_PUBLIC_KEY", "VAPID_PRIVATE_KEY",
		"VAPID_SUBJECT", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "PUSH_GATEWAY_URL",
		"STARTUP_LOG",
	} {
		os.Unsetenv(k)
	}
}
