// Package runstate persists per-stage completion records so interrupted
// runs resume where they left off. The state file is advisory: a missing or
// corrupt file degrades to an empty state and stages simply re-run.
package runstate

import (
	"encoding/json"
	"os"
	"time"

	"mikup/internal/fileutil"
)

// StageRecord captures one stage's completion.
type StageRecord struct {
	Completed bool              `json:"completed"`
	Timestamp string            `json:"timestamp"`
	Artifacts map[string]string `json:"artifacts,omitempty"`
}

// State is the durable checkpoint document.
type State struct {
	SourceFile    string                 `json:"source_file"`
	SourceMtime   *float64               `json:"source_mtime"`
	OutputDir     string                 `json:"output_dir,omitempty"`
	FastMode      bool                   `json:"fast_mode"`
	MockMode      bool                   `json:"mock_mode"`
	SelectedStage string                 `json:"selected_stage,omitempty"`
	Artifacts     map[string]string      `json:"artifacts,omitempty"`
	Stems         map[string]*string     `json:"stems,omitempty"`
	OutputPayload string                 `json:"output_payload,omitempty"`
	UpdatedAt     string                 `json:"updated_at"`
	Stages        map[string]StageRecord `json:"stages"`
}

// Empty returns a state with no completed stages.
func Empty() *State {
	return &State{Stages: map[string]StageRecord{}}
}

// Load reads the state file at path. A missing, unreadable, or corrupt file
// yields an empty state rather than an error.
func Load(path string) *State {
	data, err := os.ReadFile(path)
	if err != nil {
		return Empty()
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return Empty()
	}
	if state.Stages == nil {
		state.Stages = map[string]StageRecord{}
	}
	return &state
}

// Save writes the state atomically, stamping UpdatedAt.
func (s *State) Save(path string) error {
	s.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return fileutil.WriteJSONAtomic(path, s)
}

// SetStage records one stage's outcome, leaving sibling stage records
// untouched.
func (s *State) SetStage(stage string, completed bool, artifacts map[string]string) {
	if s.Stages == nil {
		s.Stages = map[string]StageRecord{}
	}
	s.Stages[stage] = StageRecord{
		Completed: completed,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Artifacts: artifacts,
	}
}

// Completed reports whether a stage is marked complete.
func (s *State) Completed(stage string) bool {
	return s.Stages[stage].Completed
}

// SetSource records the identity of the media file this state belongs to.
func (s *State) SetSource(path string, mtime float64) {
	s.SourceFile = path
	s.SourceMtime = &mtime
}

// MatchesSource reports whether the state was produced from the given file
// with the exact same modification time.
func (s *State) MatchesSource(path string, mtime float64) bool {
	return s.SourceFile == path && s.SourceMtime != nil && *s.SourceMtime == mtime
}

// SourceMtimeOf returns a file's modification time as fractional epoch
// seconds, the representation stored in the state file.
func SourceMtimeOf(path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return float64(info.ModTime().UnixNano()) / 1e9, nil
}
