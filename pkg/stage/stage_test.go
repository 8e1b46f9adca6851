package stage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "FastANI_input.txt")

	paths := []string{"/data/genomes/a.fasta", "/data/genomes/b.fasta", "/data/genomes/c.fna"}
	require.NoError(t, WriteManifest(paths, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)

	content := string(data)
	assert.True(t, strings.HasSuffix(content, "\n"), "manifest must end with a newline")

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	require.Len(t, lines, len(paths))
	for i, p := range paths {
		assert.Equal(t, p, lines[i])
	}
}

func TestWriteManifestOverwrites(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "FastANI_input.txt")

	require.NoError(t, WriteManifest([]string{"/one", "/two", "/three"}, dest))
	require.NoError(t, WriteManifest([]string{"/only"}, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "/only\n", string(data))
}

func TestListInputFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.fasta", "b.fasta", "c.fna.gz"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(">x\nACGT\n"), 0644))
	}
	// Nested files must not be picked up, only the entry itself.
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "d.fasta"), []byte(">d\nACGT\n"), 0644))

	paths, err := ListInputFiles(dir)
	require.NoError(t, err)
	require.Len(t, paths, 4)

	for _, p := range paths {
		assert.True(t, filepath.IsAbs(p), "paths must be absolute: %s", p)
		assert.Equal(t, dir, filepath.Dir(p))
	}
}

func TestListInputFilesMissingDir(t *testing.T) {
	_, err := ListInputFiles(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "absent.tsv")
	err := Verify(missing)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStageOutputMissing)
	assert.Contains(t, err.Error(), "absent.tsv")

	present := filepath.Join(dir, "present.tsv")
	require.NoError(t, os.WriteFile(present, []byte("x\n"), 0644))
	assert.NoError(t, Verify(present))

	// A directory is not an artifact.
	assert.ErrorIs(t, Verify(dir), ErrStageOutputMissing)
}

func TestCreateStagingDir(t *testing.T) {
	out := t.TempDir()

	dir, err := CreateStagingDir(out, "Species_demarcation")
	require.NoError(t, err)
	assert.DirExists(t, dir)

	// Idempotent on rerun.
	again, err := CreateStagingDir(out, "Species_demarcation")
	require.NoError(t, err)
	assert.Equal(t, dir, again)
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.True(t, strings.HasPrefix(a, "run-"))
	assert.NotEqual(t, a, b)
}
