package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.MaxConns != 20 {
		t.Errorf("expected 20 max conns, got %d", cfg.DB.MaxConns)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Errorf("expected 30m token ttl, got %v", cfg.Auth.TokenTTL)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
db:
  path: /tmp/test.sqlite3
  max_conns: 4
  acquire_timeout: 2s
server:
  addr: ":9090"
auth:
  token_ttl: 10m
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("DONACIJE_DB_MAX_CONNS", "8")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.Path != "/tmp/test.sqlite3" {
		t.Errorf("expected path from file, got %q", cfg.DB.Path)
	}
	if cfg.DB.MaxConns != 8 {
		t.Errorf("expected env to override max conns to 8, got %d", cfg.DB.MaxConns)
	}
	if cfg.DB.AcquireTimeout != 2*time.Second {
		t.Errorf("expected 2s acquire timeout, got %v", cfg.DB.AcquireTimeout)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected addr :9090, got %q", cfg.Server.Addr)
	}
	if cfg.Auth.TokenTTL != 10*time.Minute {
		t.Errorf("expected 10m token ttl, got %v", cfg.Auth.TokenTTL)
	}
	// Untouched defaults survive.
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("expected default request timeout, got %v", cfg.Server.RequestTimeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.DB.MaxConns = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero max conns")
	}

	cfg = Default()
	cfg.Auth.TokenTTL = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative token ttl")
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}
