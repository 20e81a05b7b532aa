package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mikup/internal/pipeline"
	"mikup/internal/runstate"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "mikup.toml")
	content := fmt.Sprintf("project_root = %q\noutput_dir = %q\nlog_dir = %q\n",
		root, filepath.Join(root, "processed"), filepath.Join(root, "logs"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestStatusEmptyDirectory(t *testing.T) {
	configPath := writeTestConfig(t)
	output, err := execute(t, "-c", configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(output, "No runs recorded") {
		t.Errorf("output = %q", output)
	}
}

func TestStatusAfterMockRun(t *testing.T) {
	configPath := writeTestConfig(t)
	root := filepath.Dir(configPath)
	input := filepath.Join(root, "episode.mkv")

	if _, err := execute(t, "-c", configPath, "run", "--mock", "--input", input); err != nil {
		t.Fatalf("run: %v", err)
	}

	output, err := execute(t, "-c", configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(output, "5/5 stages complete") {
		t.Errorf("output = %q", output)
	}
}

func TestHistoryAfterMockRun(t *testing.T) {
	configPath := writeTestConfig(t)
	root := filepath.Dir(configPath)
	input := filepath.Join(root, "episode.mkv")

	if _, err := execute(t, "-c", configPath, "run", "--mock", "--input", input); err != nil {
		t.Fatalf("run: %v", err)
	}

	output, err := execute(t, "-c", configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(output, "episode.mkv") {
		t.Errorf("output = %q", output)
	}
}

func TestRunUnknownStageFails(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, err := execute(t, "-c", configPath, "run", "--mock", "--stage", "mastering"); err == nil {
		t.Fatal("expected unknown stage to fail")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	output, err := execute(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(output, "Wrote sample configuration") {
		t.Errorf("output = %q", output)
	}

	if _, err := execute(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}

	output, err = execute(t, "config", "show", "--path", target)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(output, "Configuration file: "+target) {
		t.Errorf("output = %q", output)
	}
}

func TestCompletedPrefixStopsAtGap(t *testing.T) {
	state := runstate.Empty()
	state.SetStage(pipeline.StageSeparation, true, nil)
	state.SetStage(pipeline.StageDSP, true, nil) // transcription gap

	if got := completedPrefix(state); got != 1 {
		t.Errorf("prefix = %d, want 1", got)
	}
}
