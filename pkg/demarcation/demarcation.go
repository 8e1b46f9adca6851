// Package demarcation assigns input genomes to species clusters by running
// fastANI over all genome pairs and MCL over the resulting similarity graph.
// It is the public entry point of the clustering core; the heavy lifting is
// delegated to the external tools, this package owns staging, thresholds,
// verification, and cleanup.
package demarcation

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/yumyai/pgcf/internal/util"
	"github.com/yumyai/pgcf/logger"
	"github.com/yumyai/pgcf/pkg/db"
	"github.com/yumyai/pgcf/pkg/dispatch"
	"github.com/yumyai/pgcf/pkg/fastani"
	"github.com/yumyai/pgcf/pkg/mcl"
	"github.com/yumyai/pgcf/pkg/stage"
	"go.uber.org/zap"
)

// Artifact names within the staging directory. ManifestName and ANIOutName
// also act as the contract with the cleanup step in pkg/mcl.
const (
	StagingDirName = "Species_demarcation"
	ManifestName   = "FastANI_input.txt"
	ANIOutName     = "FastANI.tsv"
	TableName      = "FastANI_species_clusters.tsv"
	DatabaseName   = "species_clusters.db"
)

// Params configures one demarcation run.
type Params struct {
	InDir  string
	OutDir string

	FastANI      fastani.Options
	ANIThreshold float64
	MCL          mcl.Options

	// KeepSingletons assigns a fresh cluster to every genome that survives
	// no edge above the threshold instead of dropping it from the output.
	KeepSingletons bool

	Debug bool
	// ToolTimeout bounds each external tool invocation; zero means no limit.
	ToolTimeout time.Duration
}

// Demarcator runs the species demarcation pipeline. One instance per
// staging directory at a time.
type Demarcator struct {
	params Params
	runner dispatch.Runner
}

func New(p Params) *Demarcator {
	return NewWithRunner(p, &dispatch.ProcRunner{Debug: p.Debug, Timeout: p.ToolTimeout})
}

// NewWithRunner injects the command runner; tests use it to stub the
// external toolchain.
func NewWithRunner(p Params, r dispatch.Runner) *Demarcator {
	if p.ANIThreshold == 0 {
		p.ANIThreshold = fastani.DefaultANIThreshold
	}
	return &Demarcator{params: p, runner: r}
}

// pipelineState threads the per-run artifact paths through the stages
// explicitly; stages receive and return paths, nothing accumulates on the
// Demarcator itself.
type pipelineState struct {
	runID    string
	dir      string
	inputs   []string
	manifest string
	aniOut   string
	edgeList string
	clusters string
}

// AssignSpecies runs the pipeline end to end and returns the final
// genome-to-cluster assignment. Stages are strictly sequential and
// fail-fast: any tool failure or missing artifact aborts the run with no
// partial output table.
func (d *Demarcator) AssignSpecies(ctx context.Context) (*Assignment, error) {
	st := &pipelineState{runID: stage.NewRunID()}

	dir, err := stage.CreateStagingDir(d.params.OutDir, StagingDirName)
	if err != nil {
		return nil, err
	}
	st.dir = dir

	logger.Info("Starting species demarcation",
		zap.String("run_id", st.runID),
		zap.String("in_dir", d.params.InDir),
		zap.String("staging_dir", st.dir))

	if err := d.stageInputs(st); err != nil {
		return nil, err
	}
	if err := d.runSimilarity(ctx, st); err != nil {
		return nil, err
	}
	if err := d.runClustering(ctx, st); err != nil {
		return nil, err
	}

	asg, err := ParseClusters(st.clusters)
	if err != nil {
		return nil, err
	}

	if d.params.KeepSingletons {
		appendSingletons(asg, st.inputs)
	}

	if err := d.persist(ctx, st, asg); err != nil {
		return nil, err
	}

	logger.Info("Species demarcation done",
		zap.String("run_id", st.runID),
		zap.Int("genomes", asg.Len()),
		zap.Int("clusters", asg.Clusters()))

	return asg, nil
}

func (d *Demarcator) stageInputs(st *pipelineState) error {
	if !util.DirExists(d.params.InDir) {
		return fmt.Errorf("input directory does not exist: %s", d.params.InDir)
	}

	inputs, err := stage.ListInputFiles(d.params.InDir)
	if err != nil {
		return err
	}
	st.inputs = inputs

	logger.Info("Preparing FastANI input", zap.Int("genomes", len(inputs)))

	st.manifest = filepath.Join(st.dir, ManifestName)
	if err := stage.WriteManifest(inputs, st.manifest); err != nil {
		return err
	}
	if err := stage.Verify(st.manifest); err != nil {
		return fmt.Errorf("input manifest not created: %w", err)
	}
	return nil
}

func (d *Demarcator) runSimilarity(ctx context.Context, st *pipelineState) error {
	st.aniOut = filepath.Join(st.dir, ANIOutName)
	if err := fastani.Run(ctx, d.runner, st.manifest, st.aniOut, d.params.FastANI); err != nil {
		return err
	}
	if err := stage.Verify(st.aniOut); err != nil {
		return fmt.Errorf("similarity output not created: %w", err)
	}

	edgeList, err := fastani.BuildEdgeList(st.aniOut, d.params.ANIThreshold)
	if err != nil {
		return err
	}
	st.edgeList = edgeList
	if err := stage.Verify(st.edgeList); err != nil {
		return fmt.Errorf("edge list not created: %w", err)
	}
	return nil
}

func (d *Demarcator) runClustering(ctx context.Context, st *pipelineState) error {
	clusters, err := mcl.Cluster(ctx, d.runner, st.edgeList, st.manifest, d.params.MCL)
	if err != nil {
		return err
	}
	st.clusters = clusters
	if err := stage.Verify(st.clusters); err != nil {
		return fmt.Errorf("clustering output not created: %w", err)
	}
	return nil
}

func (d *Demarcator) persist(ctx context.Context, st *pipelineState, asg *Assignment) error {
	tablePath := filepath.Join(st.dir, TableName)
	if err := WriteTable(asg, tablePath); err != nil {
		return err
	}

	store, err := db.Open(filepath.Join(st.dir, DatabaseName))
	if err != nil {
		return err
	}
	defer store.Close()

	rows := make([]db.SpeciesRow, 0, asg.Len())
	for _, genome := range asg.Genomes() {
		label, _ := asg.Label(genome)
		rows = append(rows, db.SpeciesRow{Genome: genome, Species: label})
	}
	return store.SaveAssignments(ctx, rows)
}

// appendSingletons gives every manifest genome absent from the clustering
// output its own cluster, numbered after the MCL clusters in manifest
// order.
func appendSingletons(asg *Assignment, inputs []string) {
	for _, path := range inputs {
		id := NormalizeGenomeID(path)
		if _, ok := asg.Label(id); ok {
			continue
		}
		asg.set(id, fmt.Sprintf("C%d", asg.clusters))
		asg.clusters++
	}
}
