package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mikup/internal/artifacts"
	"mikup/internal/config"
	"mikup/internal/history"
	"mikup/internal/logging"
	"mikup/internal/payload"
	"mikup/internal/preflight"
	"mikup/internal/progress"
	"mikup/internal/runstate"
	"mikup/internal/services"
)

// Runner drives the five pipeline stages in order, resuming from cached
// artifacts where they are valid and persisting state after every stage.
// Stages execute strictly one at a time: each monopolizes a heavy resource
// and the next only starts once the previous call returns.
type Runner struct {
	cfg     *RunConfig
	conf    *config.Config
	collab  Collaborators
	logger  *slog.Logger
	emitter *progress.Emitter

	paths   *artifacts.Paths
	checker *Checker
	state   *runstate.State
	started time.Time
}

// NewRunner wires a runner. A nil emitter discards progress events; a nil
// logger logs nowhere.
func NewRunner(cfg *RunConfig, conf *config.Config, collab Collaborators, logger *slog.Logger, emitter *progress.Emitter) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if emitter == nil {
		emitter = progress.NewEmitter(nil)
	}
	return &Runner{
		cfg:     cfg,
		conf:    conf,
		collab:  collab,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		emitter: emitter,
	}
}

// Run executes the configured invocation. The returned error is nil for
// success and for recoverable stage degradation; a non-nil error means the
// run aborted and the process should exit non-zero.
func (r *Runner) Run(ctx context.Context) error {
	r.started = time.Now()

	ctx = services.WithRequestID(ctx, uuid.NewString())
	r.logger = logging.WithContext(ctx, r.logger)

	if err := r.cfg.Normalize(); err != nil {
		return err
	}
	if err := preflight.CheckSource(r.cfg.Input, r.cfg.Mock); err != nil {
		return err
	}
	if err := preflight.EnsureOutputDir(r.cfg.OutputDir); err != nil {
		return err
	}

	paths, err := artifacts.Resolve(r.cfg.OutputDir)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "resolve_artifacts", "prepare artifact layout", err)
	}
	r.paths = paths
	r.checker = NewChecker(paths, r.cfg.OutputPayload, r.logger)

	// The artifact directory assumes a single writer. The advisory lock
	// makes that explicit instead of leaving racing invocations to tear
	// the state file.
	lock := flock.New(paths.Lock)
	locked, err := lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "acquire_lock",
			fmt.Sprintf("lock %s", paths.Lock), err)
	}
	if !locked {
		return services.Wrap(services.ErrValidation, "pipeline", "acquire_lock",
			fmt.Sprintf("another invocation is already running against %s", r.cfg.OutputDir), nil)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	prior := runstate.Load(paths.State)

	// A full run against state recorded for a different source discards
	// that state: cached artifacts belong to another input and must never
	// be mixed with this one's.
	freshStart := false
	if !r.cfg.SingleStage() && prior.SourceFile != "" && prior.SourceFile != r.cfg.Input {
		r.logger.Info("source file changed, starting fresh",
			logging.String("recorded", prior.SourceFile),
			logging.String("current", r.cfg.Input))
		freshStart = true
	}

	// Snapshot safety compares against the identity recorded before this
	// run reseeds it.
	recorded := runstate.Empty()
	recorded.SourceFile = prior.SourceFile
	recorded.SourceMtime = prior.SourceMtime

	if freshStart {
		r.state = runstate.Empty()
		// The old source's artifacts must go before the reseeded identity
		// hits disk. Otherwise an abort mid-run leaves a state that claims
		// the new source while stems.json still holds the old one's output,
		// and the next run would adopt it.
		if err := r.purgeArtifacts(); err != nil {
			return fmt.Errorf("discard artifacts from previous source: %w", err)
		}
	} else {
		r.state = prior
	}
	r.seedState()
	if err := r.state.Save(paths.State); err != nil {
		return fmt.Errorf("persist run state: %w", err)
	}

	snap := history.NewSnapshotter(r.conf.HistoryPath(), r.conf.ProjectRoot, r.conf.HistoryLimit, r.logger)

	for idx, stage := range StageOrder {
		raw := r.checker.IsValid(stage, r.state)
		hasValid := raw && !r.cfg.Force && !freshStart
		shouldRun := r.cfg.Stage == stage || (!r.cfg.SingleStage() && !hasValid)

		if !shouldRun {
			if r.cfg.SingleStage() && !raw && dependsOn(r.cfg.Stage, stage) {
				return services.Wrap(services.ErrValidation, r.cfg.Stage, "check_prerequisite",
					fmt.Sprintf("%s requires a valid %s artifact; run that stage first", r.cfg.Stage, stage), nil)
			}
			if raw {
				r.logger.Info("stage cached, skipping", logging.String("stage", stage))
				r.emit(stage, (idx+1)*20, DisplayName(stage)+" cached")
			}
			continue
		}

		r.logger.Info("stage starting", logging.String("stage", stage),
			logging.Bool("forced", raw && (r.cfg.Force || freshStart)))
		r.emit(stage, idx*20, "starting "+DisplayName(stage))

		stageArtifacts, completed, err := r.runStage(ctx, stage)
		if err != nil {
			r.logger.Error("stage failed, aborting run", logging.String("stage", stage),
				logging.Bool("retryable", services.Recoverable(err)), logging.Error(err))
			return err
		}

		r.state.SetStage(stage, completed, stageArtifacts)
		if err := r.state.Save(paths.State); err != nil {
			return fmt.Errorf("persist run state: %w", err)
		}
		r.emit(stage, (idx+1)*20, DisplayName(stage)+" finished")

		p := payload.Assemble(paths, r.cfg.Input, time.Now().UTC().Format(time.RFC3339))
		if SnapshotSafe(r.cfg, recorded, stageArtifacts, r.logger) {
			snap.Append(p, time.Since(r.started))
		} else {
			r.logger.Info("skipping history snapshot, cached artifacts look stale",
				logging.String("stage", stage))
		}

		if r.cfg.Stage == stage {
			break
		}
	}

	r.logger.Info("run finished", logging.Duration("elapsed", time.Since(r.started)))
	return nil
}

// purgeArtifacts removes every artifact file and the prior state document.
// Racing invocations are already excluded by the advisory lock, so a partial
// purge only means the next run purges again.
func (r *Runner) purgeArtifacts() error {
	targets := make([]string, 0, 7)
	for _, path := range r.paths.Manifest() {
		targets = append(targets, path)
	}
	targets = append(targets, r.cfg.OutputPayload, r.cfg.ReportPath())
	for _, path := range targets {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (r *Runner) seedState() {
	if mtime, err := runstate.SourceMtimeOf(r.cfg.Input); err == nil {
		r.state.SetSource(r.cfg.Input, mtime)
	} else {
		r.state.SourceFile = r.cfg.Input
		r.state.SourceMtime = nil
	}
	r.state.OutputDir = r.cfg.OutputDir
	r.state.FastMode = r.cfg.Fast
	r.state.MockMode = r.cfg.Mock
	r.state.SelectedStage = r.cfg.Stage
	r.state.OutputPayload = r.cfg.OutputPayload
	r.state.Artifacts = r.paths.Manifest()
}

func (r *Runner) emit(stage string, percent int, message string) {
	r.emitter.Emit(stage, percent, message)
}

func dependsOn(stage, prereq string) bool {
	for _, p := range stagePrereqs[stage] {
		if p == prereq {
			return true
		}
	}
	return false
}
