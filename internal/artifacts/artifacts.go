// Package artifacts names and loads the durable files each pipeline stage
// produces under <output_dir>/data/.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// File names under the data directory.
const (
	StateFile         = "stage_state.json"
	StemsFile         = "stems.json"
	TranscriptionFile = "transcription.json"
	MetricsFile       = "dsp_metrics.json"
	SemanticsFile     = "semantics.json"
	LockFile          = "mikup.lock"
)

// Paths locates every stage artifact for one output directory.
type Paths struct {
	OutputDir     string
	DataDir       string
	State         string
	Stems         string
	Transcription string
	Metrics       string
	Semantics     string
	Lock          string
}

// Resolve builds the artifact layout for outputDir and creates the data
// directory if needed.
func Resolve(outputDir string) (*Paths, error) {
	dataDir := filepath.Join(outputDir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dataDir, err)
	}
	return &Paths{
		OutputDir:     outputDir,
		DataDir:       dataDir,
		State:         filepath.Join(dataDir, StateFile),
		Stems:         filepath.Join(dataDir, StemsFile),
		Transcription: filepath.Join(dataDir, TranscriptionFile),
		Metrics:       filepath.Join(dataDir, MetricsFile),
		Semantics:     filepath.Join(dataDir, SemanticsFile),
		Lock:          filepath.Join(dataDir, LockFile),
	}, nil
}

// Manifest maps artifact labels to their canonical paths, as recorded in
// the run state.
func (p *Paths) Manifest() map[string]string {
	return map[string]string{
		"stage_state":   p.State,
		"stems":         p.Stems,
		"transcription": p.Transcription,
		"dsp_metrics":   p.Metrics,
		"semantics":     p.Semantics,
	}
}

// ForStage returns the artifact path a stage writes, keyed by the stage's
// manifest label.
func (p *Paths) ForStage(stage string) map[string]string {
	switch stage {
	case "separation":
		return map[string]string{"stems": p.Stems}
	case "transcription":
		return map[string]string{"transcription": p.Transcription}
	case "dsp":
		return map[string]string{"dsp_metrics": p.Metrics}
	case "semantics":
		return map[string]string{"semantics": p.Semantics}
	}
	return nil
}

// Segment is one transcribed utterance.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// Transcription is the transcription stage artifact.
type Transcription struct {
	Segments     []Segment        `json:"segments"`
	WordSegments []map[string]any `json:"word_segments,omitempty"`
	Language     string           `json:"language,omitempty"`
}

// EmptyTranscription is the artifact written when transcription cannot
// produce output; it still satisfies the shape probe.
func EmptyTranscription() *Transcription {
	return &Transcription{Segments: []Segment{}}
}

// LoadTranscription parses the transcription artifact, enforcing that the
// raw "segments" member is a JSON array.
func LoadTranscription(path string) (*Transcription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var probe struct {
		Segments json.RawMessage `json:"segments"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if !isJSONArray(probe.Segments) {
		return nil, fmt.Errorf("parse %s: segments is not a list", path)
	}
	var tr Transcription
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if tr.Segments == nil {
		tr.Segments = []Segment{}
	}
	return &tr, nil
}

// Metrics is the loudness/pacing artifact from the dsp stage. Kept as a
// free-form object because the metric set varies with the analysis profile.
type Metrics map[string]any

// NonEmpty reports whether at least one metric was recorded.
func (m Metrics) NonEmpty() bool {
	return len(m) > 0
}

// LoadMetrics parses the dsp artifact, enforcing a JSON object shape.
func LoadMetrics(path string) (Metrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Metrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if m == nil {
		m = Metrics{}
	}
	return m, nil
}

// SemanticTag is one background sound classification.
type SemanticTag struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// LoadSemantics parses the semantics artifact, enforcing a JSON list shape.
func LoadSemantics(path string) ([]SemanticTag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !isJSONArray(data) {
		return nil, fmt.Errorf("parse %s: semantics is not a list", path)
	}
	var tags []SemanticTag
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if tags == nil {
		tags = []SemanticTag{}
	}
	return tags, nil
}

func isJSONArray(raw []byte) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
