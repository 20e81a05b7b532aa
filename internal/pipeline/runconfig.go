package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mikup/internal/services"
)

// Stage names, in execution order.
const (
	StageSeparation    = "separation"
	StageTranscription = "transcription"
	StageDSP           = "dsp"
	StageSemantics     = "semantics"
	StageDirector      = "director"
)

// StageOrder is the fixed execution order of the pipeline.
var StageOrder = []string{
	StageSeparation,
	StageTranscription,
	StageDSP,
	StageSemantics,
	StageDirector,
}

// stagePrereqs maps a stage to the earlier stages whose artifacts it
// consumes. The director composes from whatever exists and has no hard
// prerequisite.
var stagePrereqs = map[string][]string{
	StageTranscription: {StageSeparation},
	StageDSP:           {StageSeparation, StageTranscription},
	StageSemantics:     {StageSeparation},
	StageDirector:      nil,
}

var titler = cases.Title(language.English)

// DisplayName renders a stage name for user-facing output.
func DisplayName(stage string) string {
	if stage == StageDSP {
		return "DSP"
	}
	return titler.String(stage)
}

// KnownStage reports whether name is one of the five pipeline stages.
func KnownStage(name string) bool {
	for _, stage := range StageOrder {
		if stage == name {
			return true
		}
	}
	return false
}

// RunConfig is the immutable per-invocation input. Built once from CLI
// flags, then only read.
type RunConfig struct {
	Input         string
	OutputDir     string
	OutputPayload string
	Stage         string
	Fast          bool
	Mock          bool
	Force         bool
}

// Normalize absolutizes paths, fills the payload default, and validates the
// requested stage.
func (c *RunConfig) Normalize() error {
	if c.Stage != "" && !KnownStage(c.Stage) {
		return services.Wrap(services.ErrValidation, "pipeline", "normalize_config",
			fmt.Sprintf("unknown stage %q (valid: %s)", c.Stage, strings.Join(StageOrder, ", ")), nil)
	}
	if c.OutputDir == "" {
		return services.Wrap(services.ErrValidation, "pipeline", "normalize_config", "output directory is required", nil)
	}

	var err error
	if c.OutputDir, err = filepath.Abs(c.OutputDir); err != nil {
		return fmt.Errorf("resolve output directory: %w", err)
	}
	if c.Input != "" {
		if c.Input, err = filepath.Abs(c.Input); err != nil {
			return fmt.Errorf("resolve input path: %w", err)
		}
	}
	if c.OutputPayload == "" {
		c.OutputPayload = filepath.Join(c.OutputDir, "mikup_payload.json")
	} else if c.OutputPayload, err = filepath.Abs(c.OutputPayload); err != nil {
		return fmt.Errorf("resolve payload path: %w", err)
	}

	if c.Input == "" && !c.Mock {
		return services.Wrap(services.ErrValidation, "pipeline", "normalize_config", "input file is required outside mock mode", nil)
	}
	return nil
}

// SingleStage reports whether exactly one stage was requested.
func (c *RunConfig) SingleStage() bool {
	return c.Stage != ""
}

// ReportPath derives the markdown report sidecar path from the payload
// path: <payload without extension>_report.md.
func (c *RunConfig) ReportPath() string {
	base := strings.TrimSuffix(c.OutputPayload, filepath.Ext(c.OutputPayload))
	return base + "_report.md"
}
