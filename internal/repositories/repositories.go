package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/cinx/internal/models"
)

var (
	_ models.Repository[*models.StoredMovie, int64] = (*MovieRepository)(nil)
	_ models.Repository[*models.ImportJob, string]   = (*ImportRepository)(nil)
)

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers are not exposed in CLI output; they order import history and help debugging.
func NextSequence(db *sql.DB, table string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	_, err = tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}
