package demarcation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeGenomeID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"PathAndExtension", "/a/b/genome1.fasta", "genome1"},
		{"MultiDotStripsOneSegment", "genome2.fna.gz", "genome2.fna"},
		{"NoExtension", "genome3", "genome3"},
		{"RelativePath", "genomes/strain_7.fna", "strain_7"},
		{"LeadingDotKept", ".hidden", ".hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeGenomeID(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeGenomeID(got), "normalization must be idempotent")
		})
	}
}

func TestParseClusters(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "fastANI_clusters.tsv")

	content := "/g/one.fasta\t/g/two.fasta\nthree.fna.gz\n"
	require.NoError(t, os.WriteFile(dump, []byte(content), 0644))

	asg, err := ParseClusters(dump)
	require.NoError(t, err)

	assert.Equal(t, 3, asg.Len())
	assert.Equal(t, 2, asg.Clusters())

	// All members of a line share the line's label, labels follow file order.
	one, ok := asg.Label("one")
	require.True(t, ok)
	two, ok := asg.Label("two")
	require.True(t, ok)
	three, ok := asg.Label("three.fna")
	require.True(t, ok)

	assert.Equal(t, "C0", one)
	assert.Equal(t, "C0", two)
	assert.Equal(t, "C1", three)

	// The dump is the parser's to clean up.
	assert.NoFileExists(t, dump)
}

func TestParseClustersLabelOrder(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "fastANI_clusters.tsv")
	require.NoError(t, os.WriteFile(dump, []byte("z\ny\nx\nw\n"), 0644))

	asg, err := ParseClusters(dump)
	require.NoError(t, err)

	for i, genome := range []string{"z", "y", "x", "w"} {
		label, ok := asg.Label(genome)
		require.True(t, ok)
		assert.Equal(t, "C"+string(rune('0'+i)), label)
	}
}

func TestParseClustersMissingDump(t *testing.T) {
	_, err := ParseClusters(filepath.Join(t.TempDir(), "nope.tsv"))
	require.Error(t, err)
}

func TestWriteTable(t *testing.T) {
	asg := newAssignment()
	asg.set("genomeA", "C0")
	asg.set("genomeB", "C0")
	asg.set("genomeC", "C1")

	path := filepath.Join(t.TempDir(), "FastANI_species_clusters.tsv")
	require.NoError(t, WriteTable(asg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"Genome\tFastANI_species\ngenomeA\tC0\ngenomeB\tC0\ngenomeC\tC1\n",
		string(data))
}
