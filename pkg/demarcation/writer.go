package demarcation

import (
	"bufio"
	"fmt"
	"os"
)

// WriteTable persists the assignment as a tab-separated table with a
// header row, one genome per line in assignment order.
func WriteTable(asg *Assignment, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create species table %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "Genome\tFastANI_species")
	for _, genome := range asg.Genomes() {
		label, _ := asg.Label(genome)
		fmt.Fprintf(w, "%s\t%s\n", genome, label)
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write species table %s: %w", path, err)
	}
	return f.Close()
}
