package demarcation

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Assignment maps normalized genome identifiers to species cluster labels.
// First-seen order is preserved so the persisted table is stable across
// runs over the same dump.
type Assignment struct {
	genomes  []string
	species  map[string]string
	clusters int
}

func newAssignment() *Assignment {
	return &Assignment{species: make(map[string]string)}
}

func (a *Assignment) set(genome, label string) {
	if _, ok := a.species[genome]; !ok {
		a.genomes = append(a.genomes, genome)
	}
	a.species[genome] = label
}

// Label returns the species cluster label for a genome.
func (a *Assignment) Label(genome string) (string, bool) {
	label, ok := a.species[genome]
	return label, ok
}

// Genomes returns the genome identifiers in first-seen order.
func (a *Assignment) Genomes() []string {
	out := make([]string, len(a.genomes))
	copy(out, a.genomes)
	return out
}

// Len is the number of assigned genomes.
func (a *Assignment) Len() int {
	return len(a.genomes)
}

// Clusters is the number of distinct cluster labels handed out so far.
func (a *Assignment) Clusters() int {
	return a.clusters
}

// NormalizeGenomeID reduces a raw genome file reference to its identifier:
// the final path segment with one trailing extension segment stripped.
// "a/b/genome1.fasta" -> "genome1", "genome2.fna.gz" -> "genome2.fna".
// Idempotent: a name without an extension passes through unchanged.
func NormalizeGenomeID(raw string) string {
	name := raw
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if j := strings.LastIndexByte(name, '.'); j > 0 {
		name = name[:j]
	}
	return name
}

// ParseClusters reads the renamed mcxdump output: one cluster per line, its
// members tab-separated. Line order fixes the labels, C0 for line 0 and so
// on. The dump is removed after a successful read; it is the last
// intermediate left in the staging directory.
func ParseClusters(path string) (*Assignment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cluster dump %s: %w", path, err)
	}

	asg := newAssignment()
	idx := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		label := "C" + strconv.Itoa(idx)
		for _, member := range strings.Split(scanner.Text(), "\t") {
			if member == "" {
				continue
			}
			asg.set(NormalizeGenomeID(member), label)
		}
		idx++
	}
	if err := scanner.Err(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read cluster dump %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	asg.clusters = idx

	if err := os.Remove(path); err != nil {
		return nil, fmt.Errorf("failed to remove cluster dump %s: %w", path, err)
	}
	return asg, nil
}
