package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("missing config should report exists=false")
	}
	if cfg.PayloadName != "mikup_payload.json" {
		t.Fatalf("unexpected payload name %q", cfg.PayloadName)
	}
	if cfg.HistoryLimit != 50 {
		t.Fatalf("unexpected history limit %d", cfg.HistoryLimit)
	}
	if !filepath.IsAbs(cfg.ProjectRoot) {
		t.Fatalf("project root should be absolute, got %q", cfg.ProjectRoot)
	}
	if !filepath.IsAbs(cfg.OutputDir) {
		t.Fatalf("output dir should be absolute, got %q", cfg.OutputDir)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
project_root = "` + dir + `"
output_dir = "` + filepath.Join(dir, "out") + `"
log_format = "json"
history_limit = 10

[llm]
api_key = "test-key"
model = "test/model"

[tools]
ffmpeg = "/usr/local/bin/ffmpeg"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s to load, got resolved=%s exists=%v", path, resolved, exists)
	}
	if cfg.LogFormat != "json" || cfg.HistoryLimit != 10 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.LLM.APIKey != "test-key" || cfg.LLM.Model != "test/model" {
		t.Fatalf("llm overrides not applied: %+v", cfg.LLM)
	}
	if cfg.Tools.FFmpeg != "/usr/local/bin/ffmpeg" {
		t.Fatalf("tools overrides not applied: %+v", cfg.Tools)
	}
	if cfg.Tools.Separator != "audio-separator" {
		t.Fatalf("unset tool should keep default, got %q", cfg.Tools.Separator)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"payload with path", func(c *Config) { c.PayloadName = "nested/payload.json" }},
		{"zero history limit", func(c *Config) { c.HistoryLimit = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			if err := cfg.normalize(); err != nil {
				t.Fatalf("normalize: %v", err)
			}
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestHistoryPathUnderProjectRoot(t *testing.T) {
	cfg := Default()
	cfg.ProjectRoot = "/srv/mikup"
	got := cfg.HistoryPath()
	if got != filepath.Join("/srv/mikup", "data", "history.json") {
		t.Fatalf("unexpected history path %q", got)
	}
}

func TestCreateSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[llm]") {
		t.Fatal("sample config missing llm section")
	}

	if err := CreateSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}
