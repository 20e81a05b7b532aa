// Package testsupport holds shared helpers for package tests.
package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"mikup/internal/config"
)

// NewConfig returns a validated configuration rooted in a temp directory.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.ProjectRoot = root
	cfg.OutputDir = filepath.Join(root, "processed")
	cfg.LogDir = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteJSON marshals v and writes it to path.
func WriteJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshal for %s: %v", path, err)
	}
	WriteFile(t, path, string(data))
}
