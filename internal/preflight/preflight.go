// Package preflight validates inputs and the output location before any
// stage runs, so configuration mistakes fail fast instead of mid-pipeline.
package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"mikup/internal/services"
)

// Media extensions the pipeline accepts as input.
var mediaExtensions = map[string]bool{
	".mkv":  true,
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".wav":  true,
	".flac": true,
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".ogg":  true,
}

// CheckSource verifies the input media file exists, is a regular file, and
// carries a recognized extension. In mock mode a missing file is allowed:
// collaborators synthesize their own audio.
func CheckSource(path string, mock bool) error {
	info, err := os.Stat(path)
	if err != nil {
		if mock && os.IsNotExist(err) {
			return nil
		}
		return services.Wrap(services.ErrNotFound, "preflight", "check_source",
			fmt.Sprintf("input file %s", path), err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrValidation, "preflight", "check_source",
			fmt.Sprintf("input %s is a directory", path), nil)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !mediaExtensions[ext] {
		return services.Wrap(services.ErrValidation, "preflight", "check_source",
			fmt.Sprintf("unsupported media extension %q", ext), nil)
	}
	return nil
}

// EnsureOutputDir creates the output directory if needed and verifies it is
// writable by the current process.
func EnsureOutputDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "ensure_output_dir",
			fmt.Sprintf("create output directory %s", path), err)
	}
	if err := unix.Access(path, unix.W_OK); err != nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "ensure_output_dir",
			fmt.Sprintf("output directory %s is not writable", path), err)
	}
	return nil
}
