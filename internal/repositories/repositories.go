// package repositories implements the persistence layer over SQLite.
//
// Each repository covers one entity (users, tasks) with CRUD, soft deletes
// and sequence generation behind models.Repository[T].
package repositories

import (
	"database/sql"
	"fmt"
)

// NextSequence bumps and returns the counter row of <table>_sequence.
// The increment and read share one transaction; concurrent creates never
// see the same value. Sequences are internal ordering only, ids stay uuids.
func NextSequence(db *sql.DB, table string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	counter := table + "_sequence"

	if _, err := tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", counter)); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", counter)).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}
