package model

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.APIURL != "http://localhost:5000/api" {
		t.Fatalf("default api_url = %q", cfg.Server.APIURL)
	}
	if cfg.Push.Naming != "camel" {
		t.Fatalf("default naming = %q", cfg.Push.Naming)
	}
	if cfg.Push.ReconnectAttempts != 5 || cfg.Push.ReconnectDelaySec != 1 {
		t.Fatalf("default reconnect policy = %+v", cfg.Push)
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  api_url: https://unichat.example.edu/api
  push_url: wss://unichat.example.edu/ws
push:
  naming: kebab
  reconnect_attempts: 8
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.APIURL != "https://unichat.example.edu/api" {
		t.Fatalf("api_url = %q", cfg.Server.APIURL)
	}
	if cfg.Push.Naming != "kebab" || cfg.Push.ReconnectAttempts != 8 {
		t.Fatalf("push config = %+v", cfg.Push)
	}
	// Unset keys fall back to defaults.
	if cfg.Push.ReconnectDelaySec != 1 {
		t.Fatalf("reconnect_delay_sec = %d, want default 1", cfg.Push.ReconnectDelaySec)
	}
}

func TestLoadConfigRejectsUnknownNaming(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("push:\n  naming: snake\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig accepted an unknown naming convention")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &AppConfig{
		Server:  ServerConfig{APIURL: "http://h/api", PushURL: "ws://h/ws"},
		Push:    PushConfig{Naming: "kebab", ReconnectAttempts: 2, ReconnectDelaySec: 3},
		Display: DisplayConfig{Theme: "default"},
	}
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Server.APIURL != cfg.Server.APIURL ||
		loaded.Push != cfg.Push ||
		loaded.Display != cfg.Display {
		t.Fatalf("round trip mismatch: %+v vs %+v", loaded, cfg)
	}
}

func TestRoleValid(t *testing.T) {
	if !RoleStudent.Valid() || !RoleProfessor.Valid() {
		t.Fatal("known roles reported invalid")
	}
	if Role("admin").Valid() {
		t.Fatal("unknown role reported valid")
	}
}
