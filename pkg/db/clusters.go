// Package db persists the final species-cluster assignment through
// database/sql so downstream modules can query it without re-parsing the
// flat table.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// GenomeNotAssigned is returned when a genome has no species row, e.g. an
// isolate dropped by the similarity threshold.
var GenomeNotAssigned = errors.New("genome has no species assignment")

// SpeciesRow is one genome-to-cluster assignment.
type SpeciesRow struct {
	Genome  string
	Species string
}

// ClusterStore wraps the sqlite database holding the species_clusters table.
type ClusterStore struct {
	conn *sql.DB
}

// Open opens (creating if necessary) the assignment database at path and
// ensures the schema exists.
func Open(path string) (*ClusterStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cluster database %s: %w", path, err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS species_clusters (
			genome  TEXT PRIMARY KEY,
			species TEXT NOT NULL
		);
	`
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create species_clusters schema: %w", err)
	}

	return &ClusterStore{conn: conn}, nil
}

// SaveAssignments replaces the stored rows for the given genomes in one
// transaction.
func (s *ClusterStore) SaveAssignments(ctx context.Context, rows []SpeciesRow) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	stm, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO species_clusters (genome, species) VALUES (?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stm.Close()

	for _, row := range rows {
		if _, err := stm.ExecContext(ctx, row.Genome, row.Species); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to store assignment for %s: %w", row.Genome, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit assignments: %w", err)
	}
	return nil
}

// GetSpecies looks up the cluster label of one genome.
func (s *ClusterStore) GetSpecies(ctx context.Context, genome string) (string, error) {
	var species string
	err := s.conn.QueryRowContext(ctx,
		`SELECT species FROM species_clusters WHERE genome = ?`, genome).Scan(&species)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", GenomeNotAssigned, genome)
	}
	if err != nil {
		return "", err
	}
	return species, nil
}

// All returns every stored assignment ordered by genome.
func (s *ClusterStore) All(ctx context.Context) ([]SpeciesRow, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT genome, species FROM species_clusters ORDER BY genome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SpeciesRow
	for rows.Next() {
		var r SpeciesRow
		if err := rows.Scan(&r.Genome, &r.Species); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *ClusterStore) Close() error {
	return s.conn.Close()
}
