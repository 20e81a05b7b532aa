// Package transcriber wraps WhisperX transcription of the dialogue stem,
// with speaker diarization as a second optional pass.
package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mikup/internal/artifacts"
)

const (
	// DefaultCommand runs WhisperX through uvx so the tool resolves its
	// own Python environment.
	DefaultCommand = "whisperx"

	DefaultModel = "large-v3"
	FastModel    = "small"

	batchSize = "8"
)

// Config captures the WhisperX invocation settings.
type Config struct {
	Binary  string
	Model   string
	HFToken string
}

// Service shells out to WhisperX.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a transcriber service.
func NewService(cfg Config) *Service {
	if cfg.Binary == "" {
		cfg.Binary = DefaultCommand
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Transcribe runs WhisperX over the dialogue stem and parses the JSON it
// writes next to the stem file.
func (s *Service) Transcribe(ctx context.Context, stemPath string, fast bool) (*artifacts.Transcription, error) {
	if stemPath == "" {
		return nil, fmt.Errorf("transcribe: stem path required")
	}
	outputDir := filepath.Dir(stemPath)

	model := s.cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if fast {
		model = FastModel
	}

	args := []string{
		stemPath,
		"--model", model,
		"--batch_size", batchSize,
		"--output_dir", outputDir,
		"--output_format", "json",
	}
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return nil, fmt.Errorf("whisperx: %w", err)
	}
	return loadOutput(outputJSONPath(stemPath))
}

// Diarize re-runs WhisperX with speaker assignment over the same stem and
// merges speaker labels into tr. Requires a HuggingFace token for the
// pyannote models; without one the pass is skipped.
func (s *Service) Diarize(ctx context.Context, tr *artifacts.Transcription, stemPath string) (*artifacts.Transcription, error) {
	if s.cfg.HFToken == "" {
		return tr, nil
	}
	args := []string{
		stemPath,
		"--diarize",
		"--hf_token", s.cfg.HFToken,
		"--output_dir", filepath.Dir(stemPath),
		"--output_format", "json",
	}
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return nil, fmt.Errorf("whisperx diarize: %w", err)
	}
	diarized, err := loadOutput(outputJSONPath(stemPath))
	if err != nil {
		return nil, err
	}
	mergeSpeakers(tr, diarized)
	return tr, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func outputJSONPath(stemPath string) string {
	base := strings.TrimSuffix(filepath.Base(stemPath), filepath.Ext(stemPath))
	return filepath.Join(filepath.Dir(stemPath), base+".json")
}

func loadOutput(jsonPath string) (*artifacts.Transcription, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("whisperx output: %w", err)
	}
	var tr artifacts.Transcription
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("whisperx output: parse %s: %w", jsonPath, err)
	}
	if tr.Segments == nil {
		tr.Segments = []artifacts.Segment{}
	}
	return &tr, nil
}

// mergeSpeakers copies speaker labels from the diarized pass onto segments
// that overlap in time. Segment boundaries can shift slightly between
// passes, so matching is by midpoint containment.
func mergeSpeakers(tr, diarized *artifacts.Transcription) {
	for i := range tr.Segments {
		mid := (tr.Segments[i].Start + tr.Segments[i].End) / 2
		for _, d := range diarized.Segments {
			if d.Speaker == "" {
				continue
			}
			if mid >= d.Start && mid <= d.End {
				tr.Segments[i].Speaker = d.Speaker
				break
			}
		}
	}
}
