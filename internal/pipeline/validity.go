package pipeline

import (
	"log/slog"
	"os"

	"mikup/internal/artifacts"
	"mikup/internal/logging"
	"mikup/internal/payload"
	"mikup/internal/runstate"
	"mikup/internal/stems"
)

// Checker decides whether a stage's cached artifacts can be trusted on
// resume. Every I/O or parse failure is absorbed as "invalid": a broken
// cache means the stage re-runs, never that the run crashes.
type Checker struct {
	paths       *artifacts.Paths
	payloadPath string
	logger      *slog.Logger
}

// NewChecker builds a validity checker over one artifact layout.
func NewChecker(paths *artifacts.Paths, payloadPath string, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Checker{paths: paths, payloadPath: payloadPath, logger: logger}
}

// IsValid reports whether the named stage's artifacts are present and
// structurally sound. The run state is consulted only for the dsp stage,
// which may legitimately complete without leaving an artifact behind.
func (c *Checker) IsValid(stage string, state *runstate.State) bool {
	switch stage {
	case StageSeparation:
		return c.stemsValid()
	case StageTranscription:
		_, err := artifacts.LoadTranscription(c.paths.Transcription)
		return c.report(stage, err)
	case StageDSP:
		return c.metricsValid(state)
	case StageSemantics:
		_, err := artifacts.LoadSemantics(c.paths.Semantics)
		return c.report(stage, err)
	case StageDirector:
		return payload.Valid(c.payloadPath)
	}
	return false
}

// stemsValid requires the manifest to parse and every recorded stem path to
// still exist. One missing file invalidates the whole stage: a partial stem
// set cannot be patched without re-running separation.
func (c *Checker) stemsValid() bool {
	set, err := stems.Load(c.paths.Stems)
	if err != nil {
		return c.report(StageSeparation, err)
	}
	for _, path := range []*string{set.Dialogue, set.Music, set.Effects, set.DialogueResidue} {
		if path == nil {
			continue
		}
		if _, err := os.Stat(*path); err != nil {
			c.logger.Debug("recorded stem missing, invalidating separation",
				logging.String("path", *path))
			return false
		}
	}
	if set.Dialogue == nil || (set.Music == nil && set.Effects == nil) {
		return false
	}
	return true
}

func (c *Checker) metricsValid(state *runstate.State) bool {
	m, err := artifacts.LoadMetrics(c.paths.Metrics)
	if err == nil && m.NonEmpty() {
		return true
	}
	// The dsp stage may run outside this engine and only register
	// completion, leaving no artifact of its own.
	if state != nil {
		record, ok := state.Stages[StageDSP]
		if ok && record.Completed && len(record.Artifacts) == 0 {
			return true
		}
	}
	if err != nil {
		return c.report(StageDSP, err)
	}
	return false
}

func (c *Checker) report(stage string, err error) bool {
	if err == nil {
		return true
	}
	if !os.IsNotExist(err) {
		c.logger.Debug("cached artifact rejected",
			logging.String("stage", stage), logging.Error(err))
	}
	return false
}
