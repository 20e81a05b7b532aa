package pipeline

import (
	"log/slog"
	"os"

	"mikup/internal/logging"
	"mikup/internal/runstate"
)

// SnapshotSafe decides whether a history snapshot may be taken after a
// single-stage run. The prior state is the one loaded at invocation start:
// it records which source the cached artifacts were produced from, before
// this run reseeded the identity fields. Full runs are always safe; they
// just produced their artifacts from the current source.
//
// The mtime comparison is exact. A looser window would silently weaken the
// cache-safety contract on filesystems with coarse timestamp resolution.
func SnapshotSafe(cfg *RunConfig, prior *runstate.State, stageArtifacts map[string]string, logger *slog.Logger) bool {
	if logger == nil {
		logger = logging.NewNop()
	}
	if !cfg.SingleStage() {
		return true
	}

	sourceMtime, sourceErr := runstate.SourceMtimeOf(cfg.Input)
	if sourceErr != nil {
		// No resolvable mtime now; if the state recorded one, the
		// backing file disappeared or was replaced.
		if prior.SourceFile != cfg.Input || prior.SourceMtime != nil {
			logger.Debug("snapshot unsafe: source file no longer resolvable",
				logging.String("source", cfg.Input))
			return false
		}
	} else if !prior.MatchesSource(cfg.Input, sourceMtime) {
		logger.Debug("snapshot unsafe: recorded source identity differs",
			logging.String("recorded", prior.SourceFile),
			logging.String("current", cfg.Input),
			logging.Float64("current_mtime", sourceMtime))
		return false
	}

	for _, path := range stageArtifacts {
		info, err := os.Stat(path)
		if err != nil {
			logger.Debug("snapshot unsafe: stage artifact missing", logging.String("path", path))
			return false
		}
		if sourceErr == nil {
			artifactMtime := float64(info.ModTime().UnixNano()) / 1e9
			if artifactMtime < sourceMtime {
				logger.Debug("snapshot unsafe: artifact older than source",
					logging.String("path", path))
				return false
			}
		}
	}
	return true
}
