// Package tagger wraps the audio classification tool used to label
// background sound in the music and effects stems.
package tagger

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"mikup/internal/artifacts"
)

// DefaultCommand is the tagger binary invoked when none is configured.
const DefaultCommand = "mikup-tagger"

// Tags scoring below this are model noise.
const minScore = 0.2

// Config captures the tagger invocation settings.
type Config struct {
	Binary string
}

// Service shells out to the tagger tool.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) (string, error)
}

// NewService creates a tagger service.
func NewService(cfg Config) *Service {
	if cfg.Binary == "" {
		cfg.Binary = DefaultCommand
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner returning the tool's
// stdout (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) (string, error)) {
	s.commandRunner = runner
}

// Tag classifies one stem and returns its tags, best first, with
// low-confidence entries dropped.
func (s *Service) Tag(ctx context.Context, stemPath string) ([]artifacts.SemanticTag, error) {
	if stemPath == "" {
		return nil, fmt.Errorf("tag: stem path required")
	}
	output, err := s.run(ctx, s.cfg.Binary, stemPath, "--format", "json")
	if err != nil {
		return nil, fmt.Errorf("tagger: %w", err)
	}

	var tags []artifacts.SemanticTag
	if err := json.Unmarshal([]byte(output), &tags); err != nil {
		return nil, fmt.Errorf("tagger: parse output: %w", err)
	}

	kept := tags[:0]
	for _, tag := range tags {
		if tag.Score >= minScore && strings.TrimSpace(tag.Label) != "" {
			kept = append(kept, tag)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })
	return kept, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) (string, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return string(output), nil
}
