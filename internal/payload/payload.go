// Package payload assembles the final analysis document handed to
// downstream tooling. Assembly is best-effort: whatever artifacts exist are
// folded in, and is_complete reports whether the full set was present.
package payload

import (
	"encoding/json"
	"fmt"
	"os"

	"mikup/internal/artifacts"
	"mikup/internal/fileutil"
	"mikup/internal/stems"
)

// PipelineVersion is stamped into every payload's metadata.
const PipelineVersion = "1.2.0"

// Metadata identifies the run that produced a payload.
type Metadata struct {
	SourceFile      string `json:"source_file"`
	PipelineVersion string `json:"pipeline_version"`
	GeneratedAt     string `json:"generated_at,omitempty"`
}

// Semantics groups the background sound classifications.
type Semantics struct {
	BackgroundTags []artifacts.SemanticTag `json:"background_tags"`
}

// Artifacts points at the on-disk files the payload was built from.
type Artifacts struct {
	StemPaths []string `json:"stem_paths"`
}

// Payload is the complete analysis document.
type Payload struct {
	IsComplete    bool                     `json:"is_complete"`
	Metadata      Metadata                 `json:"metadata"`
	Transcription *artifacts.Transcription `json:"transcription"`
	Metrics       artifacts.Metrics        `json:"metrics"`
	Semantics     Semantics                `json:"semantics"`
	Artifacts     Artifacts                `json:"artifacts"`
	AIReport      string                   `json:"ai_report,omitempty"`
}

// Assemble folds every readable stage artifact into a payload. Missing or
// malformed artifacts leave their section empty and clear is_complete;
// assembly itself never fails.
func Assemble(paths *artifacts.Paths, sourceFile, generatedAt string) *Payload {
	p := &Payload{
		Metadata: Metadata{
			SourceFile:      sourceFile,
			PipelineVersion: PipelineVersion,
			GeneratedAt:     generatedAt,
		},
		Transcription: artifacts.EmptyTranscription(),
		Metrics:       artifacts.Metrics{},
		Semantics:     Semantics{BackgroundTags: []artifacts.SemanticTag{}},
		Artifacts:     Artifacts{StemPaths: []string{}},
	}

	haveStems := false
	if set, err := stems.Load(paths.Stems); err == nil {
		p.Artifacts.StemPaths = set.ExistingPaths()
		haveStems = len(p.Artifacts.StemPaths) > 0
	}

	haveTranscription := false
	if tr, err := artifacts.LoadTranscription(paths.Transcription); err == nil {
		p.Transcription = tr
		haveTranscription = true
	}

	haveMetrics := false
	if m, err := artifacts.LoadMetrics(paths.Metrics); err == nil {
		p.Metrics = m
		haveMetrics = true
	}

	haveSemantics := false
	if tags, err := artifacts.LoadSemantics(paths.Semantics); err == nil {
		p.Semantics.BackgroundTags = tags
		haveSemantics = true
	}

	haveState := false
	if _, err := os.Stat(paths.State); err == nil {
		haveState = true
	}

	p.IsComplete = haveStems && haveTranscription && haveMetrics && haveSemantics && haveState
	return p
}

// Save writes the payload atomically.
func (p *Payload) Save(path string) error {
	if err := fileutil.WriteJSONAtomic(path, p); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

// Load reads a payload document back from disk.
func Load(path string) (*Payload, error) {
	var p Payload
	if err := fileutil.ReadJSON(path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Valid reports whether path holds a non-empty JSON object, the probe used
// to decide whether an assembled payload already exists.
func Valid(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return len(probe) > 0
}
