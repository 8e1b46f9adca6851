package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *ClusterStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "species_clusters.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rows := []SpeciesRow{
		{Genome: "genomeA", Species: "C0"},
		{Genome: "genomeB", Species: "C0"},
		{Genome: "genomeC", Species: "C1"},
	}
	require.NoError(t, store.SaveAssignments(ctx, rows))

	species, err := store.GetSpecies(ctx, "genomeB")
	require.NoError(t, err)
	assert.Equal(t, "C0", species)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, rows, all)
}

func TestGetSpeciesUnassigned(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetSpecies(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, GenomeNotAssigned)
}

func TestSaveAssignmentsReplaces(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAssignments(ctx, []SpeciesRow{{Genome: "g", Species: "C0"}}))
	require.NoError(t, store.SaveAssignments(ctx, []SpeciesRow{{Genome: "g", Species: "C4"}}))

	species, err := store.GetSpecies(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, "C4", species)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
