package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/geniusgordon/agentmux"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agentmux.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.LogLevel != def.LogLevel || cfg.GracePeriod != def.GracePeriod {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
grace_period: 10s
agents:
  claude:
    binary: /opt/claude-code-acp
    permission_mode: auto-edit
  gemini:
    extra_args: ["--model", "gemini-2.5-pro"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.GracePeriod.Std() != 10*time.Second {
		t.Errorf("grace = %v", cfg.GracePeriod.Std())
	}
	// Unset fields keep defaults.
	if cfg.HandshakeTimeout.Std() != 30*time.Second {
		t.Errorf("handshake timeout = %v", cfg.HandshakeTimeout.Std())
	}

	claude := cfg.Agent("claude")
	if claude.Binary != "/opt/claude-code-acp" || claude.PermissionMode != agentmux.PermissionAutoEdit {
		t.Errorf("claude = %+v", claude)
	}
	gemini := cfg.Agent("gemini")
	if len(gemini.ExtraArgs) != 2 {
		t.Errorf("gemini = %+v", gemini)
	}
	if unknown := cfg.Agent("codex"); unknown.Binary != "" {
		t.Errorf("codex = %+v, want zero", unknown)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "grace_period: banana\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected duration parse error")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	path := writeConfig(t, "log_level: loud\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_InvalidPermissionMode(t *testing.T) {
	path := writeConfig(t, `
agents:
  claude:
    permission_mode: sudo
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "log_level: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
