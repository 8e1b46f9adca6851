// Package fastani drives the pairwise whole-genome similarity stage and
// reshapes its output into the weighted edge list consumed by the MCL
// toolchain.
package fastani

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yumyai/pgcf/logger"
	"github.com/yumyai/pgcf/pkg/dispatch"
	"go.uber.org/zap"
)

// DefaultANIThreshold is the species boundary: pairs below it never reach
// the clustering graph.
const DefaultANIThreshold = 95.0

// EdgeListName is the filtered three-column file handed to mcxload.
const EdgeListName = "fastANI_for_mcl.txt"

// Options carries the fastANI parameters passed through on the command line.
type Options struct {
	Cores       int
	Kmer        int
	FragLen     int
	MinFraction float64
}

// Run performs the all-vs-all fastANI comparison. The manifest serves as
// both query and reference list.
func Run(ctx context.Context, runner dispatch.Runner, manifest, out string, opts Options) error {
	cmd := dispatch.New("fastANI",
		"--ql", manifest,
		"--rl", manifest,
		"-t", strconv.Itoa(opts.Cores),
		"-k", strconv.Itoa(opts.Kmer),
		"--fragLen", strconv.Itoa(opts.FragLen),
		"--minFraction", strconv.FormatFloat(opts.MinFraction, 'g', -1, 64),
		"-o", out,
	)

	logger.Info("Performing FastANI",
		zap.String("manifest", manifest),
		zap.Int("cores", opts.Cores))

	status, err := runner.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if status != 0 {
		return &dispatch.ToolError{Tool: "fastANI", ExitCode: status}
	}
	return nil
}

// BuildEdgeList filters the five-column fastANI output down to the
// {query, target, ANI} edges at or above threshold and writes them
// tab-separated, without header, beside the input. Rows below threshold are
// dropped entirely, so genomes with no strong neighbour fall out of the
// graph here.
func BuildEdgeList(aniPath string, threshold float64) (string, error) {
	in, err := os.Open(aniPath)
	if err != nil {
		return "", fmt.Errorf("failed to open similarity output %s: %w", aniPath, err)
	}
	defer in.Close()

	outPath := filepath.Join(filepath.Dir(aniPath), EdgeListName)
	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create edge list %s: %w", outPath, err)
	}

	w := bufio.NewWriter(out)
	kept, dropped := 0, 0

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			out.Close()
			return "", fmt.Errorf("malformed similarity row in %s: %q", aniPath, line)
		}

		ani, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			out.Close()
			return "", fmt.Errorf("bad ANI value %q in %s: %w", fields[2], aniPath, err)
		}

		if ani < threshold {
			dropped++
			continue
		}
		kept++

		// Keep the ANI token verbatim so the edge list round-trips
		// without float reformatting.
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", fields[0], fields[1], fields[2]); err != nil {
			out.Close()
			return "", fmt.Errorf("failed to write edge list %s: %w", outPath, err)
		}
	}
	if err := scanner.Err(); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to read similarity output %s: %w", aniPath, err)
	}

	if err := w.Flush(); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	logger.Info("Built MCL edge list",
		zap.String("edge_list", outPath),
		zap.Int("kept", kept),
		zap.Int("dropped", dropped),
		zap.Float64("threshold", threshold))

	return outPath, nil
}
