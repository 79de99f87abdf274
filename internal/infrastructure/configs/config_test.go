package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "auth:\n  secret: test-secret\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeout != 10*time.Second {
		t.Fatalf("expected default read timeout, got %v", cfg.HTTP.ReadTimeout)
	}
	if cfg.Storage.Path != "./chronicler.db" {
		t.Fatalf("expected default storage path, got %q", cfg.Storage.Path)
	}
	if cfg.AMQP.Enabled {
		t.Fatal("expected amqp disabled by default")
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("expected default token ttl, got %v", cfg.Auth.TokenTTL)
	}
}

func TestLoadFileValues(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9090
  host: 127.0.0.1
storage:
  path: /var/lib/chronicler/relay.db
auth:
  secret: file-secret
  issuer: test-issuer
amqp:
  enabled: true
  exchange: custom-exchange
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTP.Port != 9090 || cfg.HTTP.Host != "127.0.0.1" {
		t.Fatalf("unexpected http config: %+v", cfg.HTTP)
	}
	if cfg.Storage.Path != "/var/lib/chronicler/relay.db" {
		t.Fatalf("unexpected storage path: %q", cfg.Storage.Path)
	}
	if cfg.Auth.Issuer != "test-issuer" {
		t.Fatalf("unexpected issuer: %q", cfg.Auth.Issuer)
	}
	if !cfg.AMQP.Enabled || cfg.AMQP.Exchange != "custom-exchange" {
		t.Fatalf("unexpected amqp config: %+v", cfg.AMQP)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "http:\n  port: 9090\nauth:\n  secret: file-secret\n")

	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("CHRONICLER_AUTH_SECRET", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTP.Port != 7070 {
		t.Fatalf("expected env override 7070, got %d", cfg.HTTP.Port)
	}
	if cfg.Auth.Secret != "env-secret" {
		t.Fatalf("expected env secret to win, got %q", cfg.Auth.Secret)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	path := writeConfig(t, "http:\n  port: 9090\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing auth secret")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
