package runstate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsEmptyState(t *testing.T) {
	state := Load(filepath.Join(t.TempDir(), "stage_state.json"))
	if state == nil || state.Stages == nil {
		t.Fatal("expected empty state, got nil")
	}
	if len(state.Stages) != 0 {
		t.Errorf("stages = %v, want none", state.Stages)
	}
}

func TestLoadCorruptFileYieldsEmptyState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stage_state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	state := Load(path)
	if len(state.Stages) != 0 {
		t.Errorf("corrupt file should load as empty, got %v", state.Stages)
	}
}

func TestSetStagePreservesSiblings(t *testing.T) {
	state := Empty()
	state.SetStage("separation", true, map[string]string{"stems": "/out/data/stems.json"})
	state.SetStage("transcription", true, nil)
	state.SetStage("separation", true, map[string]string{"stems": "/out/data/stems.json"})

	if !state.Completed("transcription") {
		t.Error("re-recording separation clobbered the transcription record")
	}
	if got := state.Stages["separation"].Artifacts["stems"]; got != "/out/data/stems.json" {
		t.Errorf("separation artifacts = %q", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stage_state.json")
	state := Empty()
	state.SetSource("/media/ep01.mkv", 1700000000.25)
	state.SetStage("separation", true, nil)
	state.SetStage("dsp", false, nil)
	if err := state.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := Load(path)
	if !loaded.MatchesSource("/media/ep01.mkv", 1700000000.25) {
		t.Errorf("source identity lost: %s %v", loaded.SourceFile, loaded.SourceMtime)
	}
	if !loaded.Completed("separation") {
		t.Error("separation completion lost")
	}
	if loaded.Completed("dsp") {
		t.Error("dsp was recorded incomplete")
	}
	if loaded.UpdatedAt == "" {
		t.Error("save should stamp updated_at")
	}
}

func TestMatchesSourceExactMtime(t *testing.T) {
	state := Empty()
	state.SetSource("/media/ep01.mkv", 100.5)

	if state.MatchesSource("/media/ep01.mkv", 100.500001) {
		t.Error("mtime comparison must be exact")
	}
	if state.MatchesSource("/media/other.mkv", 100.5) {
		t.Error("different path must not match")
	}
	if !state.MatchesSource("/media/ep01.mkv", 100.5) {
		t.Error("identical identity must match")
	}
}

func TestMatchesSourceNilMtime(t *testing.T) {
	state := Empty()
	state.SourceFile = "/media/ep01.mkv"
	if state.MatchesSource("/media/ep01.mkv", 100.5) {
		t.Error("state without recorded mtime must not match")
	}
}
