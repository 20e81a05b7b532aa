package pipeline

import (
	"context"

	"mikup/internal/artifacts"
	"mikup/internal/payload"
	"mikup/internal/stems"
)

// Separator isolates audio stems from the source media. Stem files are
// written under workDir and referenced from the returned set.
type Separator interface {
	Separate(ctx context.Context, input, workDir string, fast bool) (*stems.Set, error)
}

// Transcriber produces a transcript from the dialogue stem. Diarize is a
// second optional pass that assigns speaker labels to an existing
// transcript; failures there degrade to the unlabeled transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, stemPath string, fast bool) (*artifacts.Transcription, error)
	Diarize(ctx context.Context, tr *artifacts.Transcription, stemPath string) (*artifacts.Transcription, error)
}

// Analyzer extracts loudness and pacing metrics from the stem set and the
// transcript on disk.
type Analyzer interface {
	Analyze(ctx context.Context, set *stems.Set, transcriptionPath string) (artifacts.Metrics, error)
}

// Tagger classifies background sound in one stem.
type Tagger interface {
	Tag(ctx context.Context, stemPath string) ([]artifacts.SemanticTag, error)
}

// Director synthesizes a human-readable report from the assembled payload.
// An empty string with a nil error means "no report", silently.
type Director interface {
	Compose(ctx context.Context, p *payload.Payload) (string, error)
}

// Collaborators bundles the five external stage implementations.
type Collaborators struct {
	Separator   Separator
	Transcriber Transcriber
	Analyzer    Analyzer
	Tagger      Tagger
	Director    Director
}
