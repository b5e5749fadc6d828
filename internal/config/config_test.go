package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.TokenTTL != 72*time.Hour {
		t.Errorf("expected 72h token ttl, got %v", cfg.TokenTTL)
	}
	if cfg.TickInterval != time.Second {
		t.Errorf("expected 1s tick, got %v", cfg.TickInterval)
	}
	if cfg.CompanionURL != "" || cfg.CompanionRetry != 30*time.Second {
		t.Errorf("unexpected companion defaults %q %v", cfg.CompanionURL, cfg.CompanionRetry)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("expected default cors origins, got %v", cfg.CORSOrigins)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TICK_INTERVAL_MS", "250")
	t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("DEBUG_ENDPOINTS", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.TickInterval != 250*time.Millisecond {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if !cfg.DebugEndpoints || cfg.LogLevel != "debug" {
		t.Fatalf("expected debug settings, got %+v", cfg)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "focus.yaml")
	content := "PORT: \"7070\"\nCOMPANION_URL: tabbie.local\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FOCUS_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "7070" || cfg.CompanionURL != "tabbie.local" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestValidateClamps(t *testing.T) {
	cfg := Config{LogLevel: "loud", TickInterval: -1, CompanionRetry: 0}
	cfg.Validate()
	if cfg.LogLevel != "info" || cfg.TickInterval != time.Second || cfg.CompanionRetry != 30*time.Second {
		t.Fatalf("unexpected clamped config %+v", cfg)
	}
	if cfg.Port != "8080" || cfg.TokenTTL != 72*time.Hour {
		t.Fatalf("unexpected clamped config %+v", cfg)
	}
}
