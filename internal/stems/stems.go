// Package stems models the stem manifest produced by source separation.
// The manifest maps fixed stem names to audio file paths; a stem that the
// separator did not produce is recorded as null rather than omitted so the
// manifest shape stays stable across separator models.
package stems

import (
	"fmt"
	"os"

	"mikup/internal/fileutil"
	"mikup/internal/services"
)

// Stem names as they appear in the manifest.
const (
	KeyDialogue        = "DX"
	KeyMusic           = "Music"
	KeyEffects         = "Effects"
	KeyDialogueResidue = "DX_Residual"
)

// Set is the stem manifest. Pointer fields distinguish "absent" (null in
// JSON) from an empty path.
type Set struct {
	Dialogue        *string `json:"DX"`
	Music           *string `json:"Music"`
	Effects         *string `json:"Effects"`
	DialogueResidue *string `json:"DX_Residual"`
}

// Normalize nulls out entries whose files are missing on disk and verifies
// the minimum viable set: a dialogue stem plus at least one background stem.
func (s *Set) Normalize() error {
	for _, field := range []**string{&s.Dialogue, &s.Music, &s.Effects, &s.DialogueResidue} {
		if *field == nil {
			continue
		}
		if _, err := os.Stat(**field); err != nil {
			*field = nil
		}
	}
	if s.Dialogue == nil {
		return services.Wrap(services.ErrExternalTool, "separation", "normalize_stems", "separator produced no dialogue stem", nil)
	}
	if s.Music == nil && s.Effects == nil {
		return services.Wrap(services.ErrExternalTool, "separation", "normalize_stems", "separator produced no background stem", nil)
	}
	return nil
}

// DialoguePath returns the dialogue stem path, or "" when absent.
func (s *Set) DialoguePath() string {
	if s.Dialogue == nil {
		return ""
	}
	return *s.Dialogue
}

// BackgroundPaths returns the background stem paths that exist in the
// manifest, music before effects.
func (s *Set) BackgroundPaths() []string {
	var paths []string
	if s.Music != nil {
		paths = append(paths, *s.Music)
	}
	if s.Effects != nil {
		paths = append(paths, *s.Effects)
	}
	return paths
}

// Manifest returns the stem map with nil entries preserved, suitable for
// embedding in the final payload.
func (s *Set) Manifest() map[string]*string {
	return map[string]*string{
		KeyDialogue:        s.Dialogue,
		KeyMusic:           s.Music,
		KeyEffects:         s.Effects,
		KeyDialogueResidue: s.DialogueResidue,
	}
}

// ExistingPaths lists every stem path whose file is present on disk.
func (s *Set) ExistingPaths() []string {
	var paths []string
	for _, field := range []*string{s.Dialogue, s.Music, s.Effects, s.DialogueResidue} {
		if field == nil {
			continue
		}
		if _, err := os.Stat(*field); err == nil {
			paths = append(paths, *field)
		}
	}
	return paths
}

// Save writes the manifest atomically.
func (s *Set) Save(path string) error {
	if err := fileutil.WriteJSONAtomic(path, s); err != nil {
		return fmt.Errorf("write stem manifest: %w", err)
	}
	return nil
}

// Load reads a manifest from disk.
func Load(path string) (*Set, error) {
	var set Set
	if err := fileutil.ReadJSON(path, &set); err != nil {
		return nil, fmt.Errorf("read stem manifest: %w", err)
	}
	return &set, nil
}

// Ptr is a convenience for building manifests in code.
func Ptr(path string) *string {
	return &path
}
