package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleConfig = `
server:
  base_url: https://care.example.com/
  request_timeout_seconds: 10
chat:
  stream_timeout_seconds: 45
storage:
  path: /tmp/care/sessions.db
speech:
  command: say
  args: ["-v", "Samantha"]
log:
  level: debug
`

// TestLoad_FromFile verifies that Load unmarshals an explicit config file.
func TestLoad_FromFile(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := tmp.WriteString(sampleConfig); err != nil {
		t.Fatalf("write: %v", err)
	}
	tmp.Close()

	t.Setenv("CONFIG_PATH", tmp.Name())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.BaseURL != "https://care.example.com/" {
		t.Fatalf("unexpected base URL: %s", cfg.Server.BaseURL)
	}
	if cfg.Server.RequestTimeoutSeconds != 10 {
		t.Fatalf("unexpected request timeout: %d", cfg.Server.RequestTimeoutSeconds)
	}
	if cfg.Chat.StreamTimeoutSeconds != 45 {
		t.Fatalf("unexpected stream timeout: %d", cfg.Chat.StreamTimeoutSeconds)
	}
	if cfg.Storage.Path != "/tmp/care/sessions.db" {
		t.Fatalf("unexpected storage path: %s", cfg.Storage.Path)
	}
	if cfg.Speech.Command != "say" {
		t.Fatalf("unexpected speech command: %s", cfg.Speech.Command)
	}
	if len(cfg.Speech.Args) != 2 || cfg.Speech.Args[1] != "Samantha" {
		t.Fatalf("unexpected speech args: %v", cfg.Speech.Args)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.Log.Level)
	}
	// Unset fields keep their defaults.
	if cfg.Log.File == "" {
		t.Fatal("expected default log file")
	}
}

// TestLoad_DefaultsWithoutFile verifies that a missing config file is fine
// and every setting has a workable default.
func TestLoad_DefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("XDG_DATA_HOME", dir)
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected default base URL: %s", cfg.Server.BaseURL)
	}
	if cfg.Chat.StreamTimeoutSeconds != 120 {
		t.Fatalf("unexpected default stream timeout: %d", cfg.Chat.StreamTimeoutSeconds)
	}
	if !strings.HasSuffix(cfg.Storage.Path, "sessions.db") {
		t.Fatalf("unexpected default storage path: %s", cfg.Storage.Path)
	}
	if cfg.Speech.Command != "" {
		t.Fatalf("speech should be disabled by default, got %q", cfg.Speech.Command)
	}
}

func TestLoad_MissingExplicitFileIsAnError(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestDefaultDataDir_HonorsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	if got := DefaultDataDir(); got != filepath.Join(dir, "carelink") {
		t.Fatalf("unexpected data dir: %s", got)
	}
}
