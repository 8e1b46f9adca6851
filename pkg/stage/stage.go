// Package stage handles the filesystem plumbing around the external
// toolchain: input enumeration, the manifest file, and the existence gates
// run after every stage.
package stage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/yumyai/pgcf/internal/util"
)

// ErrStageOutputMissing marks a stage that ran but left no artifact behind.
// Distinct from a tool exiting non-zero.
var ErrStageOutputMissing = errors.New("stage produced no output")

// ListInputFiles enumerates the entries directly under dir, non-recursively,
// and returns them as absolute paths. Ordering follows os.ReadDir (lexical);
// callers must not depend on it for correctness.
func ListInputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list input directory %s: %w", dir, err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, filepath.Join(abs, entry.Name()))
	}
	return paths, nil
}

// WriteManifest writes one path per line to dest, overwriting any existing
// file. The manifest doubles as query and reference list for the all-vs-all
// fastANI run.
func WriteManifest(paths []string, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create manifest %s: %w", dest, err)
	}

	for _, p := range paths {
		if _, err := f.WriteString(p + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("failed to write manifest %s: %w", dest, err)
		}
	}
	return f.Close()
}

// CreateStagingDir makes the per-run staging directory under out. Created
// once at pipeline start; safe when it already exists.
func CreateStagingDir(out, name string) (string, error) {
	dir := filepath.Join(out, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create staging directory %s: %w", dir, err)
	}
	return dir, nil
}

// Verify gates a pipeline stage on its expected artifact.
func Verify(path string) error {
	if !util.FileExists(path) {
		return fmt.Errorf("%w: %s", ErrStageOutputMissing, path)
	}
	return nil
}

// NewRunID returns the identifier carried through a single pipeline run's
// log fields.
func NewRunID() string {
	return "run-" + uuid.New().String()
}
