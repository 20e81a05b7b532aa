// Package separator wraps the audio-separator CLI, which splits a media
// file into dialogue, music, and effects stems using pretrained source
// separation models.
package separator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mikup/internal/stems"
)

// DefaultCommand is the separator binary invoked when none is configured.
const DefaultCommand = "audio-separator"

// Fast mode keeps only the first (vocals/instrumental) model pass.
var defaultModels = []string{
	"model_bs_roformer_ep_317_sdr_12.9755.ckpt",
	"UVR-MDX-NET-Inst_HQ_3.onnx",
}

// Config captures the separator invocation settings.
type Config struct {
	Binary string
	Models []string
}

// Service shells out to the separator tool.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a separator service.
func NewService(cfg Config) *Service {
	if cfg.Binary == "" {
		cfg.Binary = DefaultCommand
	}
	if len(cfg.Models) == 0 {
		cfg.Models = defaultModels
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Separate runs the separation models over input and returns the stem
// manifest. Stem files land under workDir/stems.
func (s *Service) Separate(ctx context.Context, input, workDir string, fast bool) (*stems.Set, error) {
	if input == "" {
		return nil, fmt.Errorf("separate: input path required")
	}
	stemDir := filepath.Join(workDir, "stems")
	if err := os.MkdirAll(stemDir, 0o755); err != nil {
		return nil, fmt.Errorf("separate: ensure stem dir: %w", err)
	}

	models := s.cfg.Models
	if fast && len(models) > 1 {
		models = models[:1]
	}
	for _, model := range models {
		args := buildArgs(input, stemDir, model)
		if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
			return nil, fmt.Errorf("separator: model %s: %w", model, err)
		}
	}
	return collectStems(stemDir, input)
}

func buildArgs(input, stemDir, model string) []string {
	return []string{
		input,
		"--model_filename", model,
		"--output_dir", stemDir,
		"--output_format", "wav",
	}
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

// collectStems maps the separator's output naming onto the fixed stem set.
// Output files carry the model's stem label in parentheses, e.g.
// "input_(Vocals)_model.wav".
func collectStems(stemDir, input string) (*stems.Set, error) {
	entries, err := os.ReadDir(stemDir)
	if err != nil {
		return nil, fmt.Errorf("separate: read stem dir: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	set := &stems.Set{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		path := filepath.Join(stemDir, name)
		lower := strings.ToLower(name)
		switch {
		case strings.Contains(lower, "(vocals)"):
			set.Dialogue = stems.Ptr(path)
		case strings.Contains(lower, "(instrumental)") && set.Music == nil:
			set.Music = stems.Ptr(path)
		case strings.Contains(lower, "(music)"):
			set.Music = stems.Ptr(path)
		case strings.Contains(lower, "(effects)") || strings.Contains(lower, "(other)"):
			set.Effects = stems.Ptr(path)
		case strings.Contains(lower, "(no vocals)") && set.Effects == nil:
			set.Effects = stems.Ptr(path)
		case strings.Contains(lower, "(residual)"):
			set.DialogueResidue = stems.Ptr(path)
		}
	}
	if set.Dialogue == nil && set.Music == nil && set.Effects == nil {
		return nil, fmt.Errorf("separate: no stem outputs found under %s", stemDir)
	}
	return set, nil
}
