package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.JWTAlgorithm != "HS256" {
		t.Fatalf("JWTAlgorithm = %q, want %q", cfg.JWTAlgorithm, "HS256")
	}
	if cfg.JWTIssuer != "lexroom-core" || cfg.JWTAudience != "lexroom-client" {
		t.Fatalf("issuer/audience = (%q, %q), want defaults", cfg.JWTIssuer, cfg.JWTAudience)
	}
	if cfg.SessionInactivityTimeout != 10*time.Minute {
		t.Fatalf("SessionInactivityTimeout = %v, want 10m", cfg.SessionInactivityTimeout)
	}
	if cfg.MaxToolRounds != 5 {
		t.Fatalf("MaxToolRounds = %d, want 5", cfg.MaxToolRounds)
	}
	if cfg.LLMModel != "gpt-oss-120b" {
		t.Fatalf("LLMModel = %q, want default model", cfg.LLMModel)
	}
	if cfg.LLMMaxTokens != 10000 {
		t.Fatalf("LLMMaxTokens = %d, want 10000", cfg.LLMMaxTokens)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_BIND_ADDR", ":9999")
	t.Setenv("APP_SESSION_INACTIVITY_TIMEOUT", "30s")
	t.Setenv("APP_SESSION_MAX_PER_SUBJECT", "3")
	t.Setenv("APP_MAX_TOOL_ROUNDS", "7")
	t.Setenv("JWT_SECRET_KEY", "  padded-secret  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9999" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9999")
	}
	if cfg.SessionInactivityTimeout != 30*time.Second {
		t.Fatalf("SessionInactivityTimeout = %v, want 30s", cfg.SessionInactivityTimeout)
	}
	if cfg.SessionMaxPerSubject != 3 {
		t.Fatalf("SessionMaxPerSubject = %d, want 3", cfg.SessionMaxPerSubject)
	}
	if cfg.MaxToolRounds != 7 {
		t.Fatalf("MaxToolRounds = %d, want 7", cfg.MaxToolRounds)
	}
	if cfg.JWTSecret != "padded-secret" {
		t.Fatalf("JWTSecret = %q, want trimmed value", cfg.JWTSecret)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("APP_SESSION_INACTIVITY_TIMEOUT", "not-a-duration")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() should fail on malformed duration")
	}
}

func TestLoadRejectsTooShortInactivity(t *testing.T) {
	t.Setenv("APP_SESSION_INACTIVITY_TIMEOUT", "1s")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() should fail on sub-5s inactivity timeout")
	}
}

func TestLoadRejectsNonPositiveRounds(t *testing.T) {
	t.Setenv("APP_MAX_TOOL_ROUNDS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() should fail on zero tool rounds")
	}
}
