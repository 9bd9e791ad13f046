package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pbg.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}

	opts := cfg.HotspotOptions()
	if opts.IgnorePrefix != "0x7f" || opts.Width != 8 || opts.MissLabel != "miss-address" {
		t.Errorf("default hotspot options: %+v", opts)
	}
}

func TestLoadOverridesAndEnv(t *testing.T) {
	t.Setenv("PBG_TEST_TOKEN", "s3cret")
	path := writeConfig(t, `
data_dir: /tmp/pbg
auth_token: ${PBG_TEST_TOKEN}
log_level: debug
hotspot:
  ignore_prefix: ""
  width: 16
types:
  max_depth: 8
  qualifiers:
    volatile-type:
      prefix: "volatile "
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AuthToken != "s3cret" {
		t.Errorf("env expansion: got %q", cfg.AuthToken)
	}
	if cfg.HTTPAddr != ":9191" {
		t.Errorf("unset field lost its default: %q", cfg.HTTPAddr)
	}

	opts := cfg.HotspotOptions()
	if opts.IgnorePrefix != "" || opts.Width != 16 || opts.AddressPrefix != "0x" {
		t.Errorf("hotspot options: %+v", opts)
	}
	if n := len(cfg.ResolverOptions()); n != 2 {
		t.Errorf("resolver options: got %d, want 2", n)
	}
	if cfg.EngineOptions(slog.Default()).DataDir != "/tmp/pbg" {
		t.Errorf("engine data dir not propagated")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown field", "data_dirr: x\n", "field data_dirr not found"},
		{"bad level", "log_level: loud\n", "unknown log_level"},
		{"empty qualifier", "types:\n  qualifiers:\n    atomic-type: {}\n", "needs a prefix or a suffix"},
		{"negative width", "hotspot:\n  width: -1\n", "must not be negative"},
		{"property and indexed", "import:\n  property_predicates: [text-at-pc]\n", "listed in both"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
