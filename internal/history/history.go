// Package history keeps a rolling journal of payload snapshots under the
// project root, newest first, so earlier runs of a file remain inspectable
// after later runs overwrite the live artifacts.
package history

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"mikup/internal/fileutil"
	"mikup/internal/logging"
	"mikup/internal/payload"
)

// Entry is one snapshot in the journal.
type Entry struct {
	ID       string           `json:"id"`
	Filename string           `json:"filename"`
	Date     string           `json:"date"`
	Duration float64          `json:"duration"`
	Payload  *payload.Payload `json:"payload"`
}

// Snapshotter appends payload snapshots to the journal file.
type Snapshotter struct {
	path        string
	projectRoot string
	limit       int
	logger      *slog.Logger
}

// NewSnapshotter builds a snapshotter writing to path. Stem paths inside
// snapshots are stored relative to projectRoot when they fall under it.
func NewSnapshotter(path, projectRoot string, limit int, logger *slog.Logger) *Snapshotter {
	if limit < 1 {
		limit = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Snapshotter{path: path, projectRoot: projectRoot, limit: limit, logger: logger}
}

// Append prepends a snapshot of p and trims the journal to the configured
// limit. Journal failures are logged, never fatal: history is a convenience
// layer around the pipeline, not part of it.
func (s *Snapshotter) Append(p *payload.Payload, duration time.Duration) {
	entries := Load(s.path)

	snapshot := *p
	snapshot.Artifacts.StemPaths = s.relativize(p.Artifacts.StemPaths)

	entry := Entry{
		ID:       uuid.NewString(),
		Filename: filepath.Base(p.Metadata.SourceFile),
		Date:     time.Now().UTC().Format(time.RFC3339),
		Duration: duration.Seconds(),
		Payload:  &snapshot,
	}

	entries = append([]Entry{entry}, entries...)
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}

	if err := fileutil.WriteJSONAtomic(s.path, entries); err != nil {
		s.logger.Warn("history snapshot failed", logging.String("path", s.path), logging.Error(err))
	}
}

func (s *Snapshotter) relativize(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if rel, err := filepath.Rel(s.projectRoot, p); err == nil && !isOutside(rel) {
			out = append(out, rel)
			continue
		}
		out = append(out, p)
	}
	return out
}

func isOutside(rel string) bool {
	return rel == ".." || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}

// Load reads the journal at path. Missing or corrupt journals load as
// empty.
func Load(path string) []Entry {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}
	return entries
}
