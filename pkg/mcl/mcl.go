// Package mcl drives the three-stage MCL toolchain (mcxload, mcl, mcxdump)
// over the fastANI edge list. The stages run strictly in sequence; each is
// gated on both exit status and output existence before the next starts.
package mcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yumyai/pgcf/logger"
	"github.com/yumyai/pgcf/pkg/dispatch"
	"github.com/yumyai/pgcf/pkg/stage"
	"go.uber.org/zap"
)

// Intermediate and final artifact names within the staging directory.
const (
	matrixName = "fastANI_mcx_mtrx.txt"
	tabName    = "fastANI_annot.tab"
	rawName    = "fastANI_mcl_out.txt"
	dumpName   = "fastANI_mcx_dump.txt"

	// ClustersName is the stable name the dump is renamed to on success.
	ClustersName = "fastANI_clusters.tsv"
)

// Options carries the MCL parameters. Inflation controls granularity:
// higher values yield more, smaller clusters.
type Options struct {
	Cores     int
	Inflation float64
}

type toolStage struct {
	cmd *dispatch.Command
	out string
}

// Cluster loads the edge list into MCL's matrix format, clusters it, and
// dumps the clusters back into genome space. On success all intermediates
// (including the manifest and edge list) are removed and the dump is renamed
// to ClustersName; on failure intermediates are left in place for diagnosis
// and the error is returned immediately.
func Cluster(ctx context.Context, runner dispatch.Runner, edgeList, manifest string, opts Options) (string, error) {
	dir := filepath.Dir(edgeList)

	matrix := filepath.Join(dir, matrixName)
	tab := filepath.Join(dir, tabName)
	raw := filepath.Join(dir, rawName)
	dump := filepath.Join(dir, dumpName)

	stages := []toolStage{
		{
			cmd: dispatch.New("mcxload",
				"-abc", edgeList,
				"-o", matrix,
				"-write-tab", tab),
			out: matrix,
		},
		{
			cmd: dispatch.New("mcl", matrix,
				"-te", strconv.Itoa(opts.Cores),
				"-I", strconv.FormatFloat(opts.Inflation, 'g', -1, 64),
				"-o", raw),
			out: raw,
		},
		{
			cmd: dispatch.New("mcxdump",
				"-icl", raw,
				"-tabr", tab,
				"-o", dump),
			out: dump,
		},
	}

	logger.Info("Running MCL clustering",
		zap.String("edge_list", edgeList),
		zap.Float64("inflation", opts.Inflation))

	for _, s := range stages {
		status, err := runner.Run(ctx, s.cmd)
		if err != nil {
			return "", err
		}
		if status != 0 {
			return "", &dispatch.ToolError{Tool: s.cmd.Tool, ExitCode: status}
		}
		if err := stage.Verify(s.out); err != nil {
			return "", err
		}
	}

	if err := cleanup(manifest, edgeList, matrix, tab, raw); err != nil {
		return "", err
	}

	clusters := filepath.Join(dir, ClustersName)
	if err := os.Rename(dump, clusters); err != nil {
		return "", fmt.Errorf("failed to rename cluster dump: %w", err)
	}
	return clusters, nil
}

// cleanup removes the intermediates once the dump exists. Missing files are
// tolerated so a rerun over a dirty directory still converges.
func cleanup(paths ...string) error {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove intermediate %s: %w", p, err)
		}
	}
	return nil
}
