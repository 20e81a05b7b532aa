package pipeline

import (
	"context"
	"time"

	"mikup/internal/artifacts"
	"mikup/internal/fileutil"
	"mikup/internal/logging"
	"mikup/internal/payload"
	"mikup/internal/services"
	"mikup/internal/stems"
)

// runStage executes one stage and returns its artifact map and completion
// flag. A non-nil error aborts the whole run; recoverable collaborator
// failures are absorbed here by writing safe default artifacts.
func (r *Runner) runStage(ctx context.Context, stage string) (map[string]string, bool, error) {
	ctx = services.WithStage(ctx, stage)
	switch stage {
	case StageSeparation:
		return r.runSeparation(ctx)
	case StageTranscription:
		return r.runTranscription(ctx)
	case StageDSP:
		return r.runDSP(ctx)
	case StageSemantics:
		return r.runSemantics(ctx)
	case StageDirector:
		return r.runDirector(ctx)
	}
	return nil, false, services.Wrap(services.ErrValidation, stage, "run_stage", "unknown stage", nil)
}

// Separation failure is always fatal: every downstream stage consumes its
// stems.
func (r *Runner) runSeparation(ctx context.Context) (map[string]string, bool, error) {
	set, err := r.collab.Separator.Separate(ctx, r.cfg.Input, r.paths.DataDir, r.cfg.Fast)
	if err != nil {
		return nil, false, services.Wrap(services.ErrExternalTool, StageSeparation, "separate", "stem separation failed", err)
	}
	if err := set.Normalize(); err != nil {
		return nil, false, err
	}
	if err := set.Save(r.paths.Stems); err != nil {
		return nil, false, err
	}
	r.state.Stems = set.Manifest()
	return r.paths.ForStage(StageSeparation), true, nil
}

func (r *Runner) runTranscription(ctx context.Context) (map[string]string, bool, error) {
	set, err := r.loadStems(StageTranscription)
	if err != nil {
		return nil, false, err
	}

	tr, err := r.collab.Transcriber.Transcribe(ctx, set.DialoguePath(), r.cfg.Fast)
	if err != nil {
		r.logger.Warn("transcription failed, continuing with an empty transcript",
			logging.String("stage", StageTranscription), logging.Error(err))
		tr = artifacts.EmptyTranscription()
	} else if !r.cfg.Fast {
		if diarized, derr := r.collab.Transcriber.Diarize(ctx, tr, set.DialoguePath()); derr == nil {
			tr = diarized
		} else {
			r.logger.Warn("diarization failed, keeping unlabeled transcript", logging.Error(derr))
		}
	}

	if err := fileutil.WriteJSONAtomic(r.paths.Transcription, tr); err != nil {
		return nil, false, err
	}
	r.logger.Info("transcript written", logging.Int("segments", len(tr.Segments)))
	return r.paths.ForStage(StageTranscription), true, nil
}

// A dsp failure leaves an empty metrics object behind so downstream stages
// and payload assembly keep working, but the stage is not marked complete:
// an empty object never passes the validity probe, so the next run retries.
func (r *Runner) runDSP(ctx context.Context) (map[string]string, bool, error) {
	set, err := r.loadStems(StageDSP)
	if err != nil {
		return nil, false, err
	}

	metrics, err := r.collab.Analyzer.Analyze(ctx, set, r.paths.Transcription)
	if err != nil {
		r.logger.Warn("dsp analysis failed", logging.String("stage", StageDSP), logging.Error(err))
		if werr := fileutil.WriteJSONAtomic(r.paths.Metrics, artifacts.Metrics{}); werr != nil {
			return nil, false, werr
		}
		return r.paths.ForStage(StageDSP), false, nil
	}

	if err := fileutil.WriteJSONAtomic(r.paths.Metrics, metrics); err != nil {
		return nil, false, err
	}
	return r.paths.ForStage(StageDSP), true, nil
}

// Semantic tagging is best-effort per background stem; a tagger failure
// costs that stem's tags, never the stage.
func (r *Runner) runSemantics(ctx context.Context) (map[string]string, bool, error) {
	set, err := r.loadStems(StageSemantics)
	if err != nil {
		return nil, false, err
	}

	tags := []artifacts.SemanticTag{}
	for _, stemPath := range set.BackgroundPaths() {
		stemTags, terr := r.collab.Tagger.Tag(ctx, stemPath)
		if terr != nil {
			r.logger.Warn("semantic tagging failed for stem",
				logging.String("stem", stemPath), logging.Error(terr))
			continue
		}
		tags = append(tags, stemTags...)
	}

	if err := fileutil.WriteJSONAtomic(r.paths.Semantics, tags); err != nil {
		return nil, false, err
	}
	r.logger.Info("background tags written", logging.Int("tags", len(tags)))
	return r.paths.ForStage(StageSemantics), true, nil
}

// The director assembles the payload from whatever exists. Report
// synthesis failing (or declining) costs only the report.
func (r *Runner) runDirector(ctx context.Context) (map[string]string, bool, error) {
	p := payload.Assemble(r.paths, r.cfg.Input, time.Now().UTC().Format(time.RFC3339))

	report, err := r.collab.Director.Compose(ctx, p)
	if err != nil {
		r.logger.Warn("report synthesis failed, writing payload without report", logging.Error(err))
	} else if report != "" {
		p.AIReport = report
		if werr := fileutil.WriteFileAtomic(r.cfg.ReportPath(), []byte(report), 0o644); werr != nil {
			r.logger.Warn("report sidecar write failed", logging.Error(werr))
		}
	}

	if err := p.Save(r.cfg.OutputPayload); err != nil {
		return nil, false, err
	}
	return map[string]string{"payload": r.cfg.OutputPayload}, true, nil
}

func (r *Runner) loadStems(stage string) (*stems.Set, error) {
	set, err := stems.Load(r.paths.Stems)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, stage, "load_stems", "stem manifest unavailable", err)
	}
	return set, nil
}
