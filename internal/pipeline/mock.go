package pipeline

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"

	"mikup/internal/artifacts"
	"mikup/internal/payload"
	"mikup/internal/stems"
)

// MockCollaborators returns a full collaborator set that synthesizes
// plausible artifacts without touching any external tool.
func MockCollaborators() Collaborators {
	return Collaborators{
		Separator:   mockSeparator{},
		Transcriber: mockTranscriber{},
		Analyzer:    mockAnalyzer{},
		Tagger:      mockTagger{},
		Director:    mockDirector{},
	}
}

type mockSeparator struct{}

func (mockSeparator) Separate(_ context.Context, _, workDir string, _ bool) (*stems.Set, error) {
	stemDir := filepath.Join(workDir, "stems")
	if err := os.MkdirAll(stemDir, 0o755); err != nil {
		return nil, err
	}
	set := &stems.Set{}
	for _, stem := range []struct {
		name string
		dest **string
	}{
		{"dx.wav", &set.Dialogue},
		{"music.wav", &set.Music},
		{"effects.wav", &set.Effects},
	} {
		path := filepath.Join(stemDir, stem.name)
		if err := writeSilentWAV(path); err != nil {
			return nil, err
		}
		*stem.dest = stems.Ptr(path)
	}
	return set, nil
}

// writeSilentWAV emits a minimal 16-bit mono PCM file holding one second of
// silence at 16 kHz, enough for downstream tools that probe headers.
func writeSilentWAV(path string) error {
	const (
		sampleRate = 16000
		dataSize   = sampleRate * 2
	)
	buf := make([]byte, 44+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], sampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], sampleRate*2)
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], dataSize)
	return os.WriteFile(path, buf, 0o644)
}

type mockTranscriber struct{}

func (mockTranscriber) Transcribe(_ context.Context, _ string, _ bool) (*artifacts.Transcription, error) {
	return &artifacts.Transcription{
		Segments: []artifacts.Segment{
			{Start: 0.5, End: 2.1, Text: "It's quiet out here tonight."},
			{Start: 2.8, End: 4.0, Text: "Too quiet."},
		},
		Language: "en",
	}, nil
}

func (mockTranscriber) Diarize(_ context.Context, tr *artifacts.Transcription, _ string) (*artifacts.Transcription, error) {
	for i := range tr.Segments {
		tr.Segments[i].Speaker = "SPEAKER_00"
	}
	return tr, nil
}

type mockAnalyzer struct{}

func (mockAnalyzer) Analyze(_ context.Context, _ *stems.Set, _ string) (artifacts.Metrics, error) {
	return artifacts.Metrics{
		"integrated_lufs": -18.4,
		"loudness_range":  6.2,
		"true_peak_dbfs":  -1.1,
		"pacing_gaps": []map[string]any{
			{"start": 2.1, "end": 2.8, "duration": 0.7},
		},
	}, nil
}

type mockTagger struct{}

func (mockTagger) Tag(_ context.Context, _ string) ([]artifacts.SemanticTag, error) {
	return []artifacts.SemanticTag{
		{Label: "wind", Score: 0.82},
		{Label: "distant traffic", Score: 0.41},
	}, nil
}

type mockDirector struct{}

func (mockDirector) Compose(_ context.Context, p *payload.Payload) (string, error) {
	if !p.IsComplete {
		return "", nil
	}
	return "# Mix Notes\n\nDialogue sits clean against a sparse background; no correction needed.\n", nil
}
