package store

import (
	"context"
	"database/sql"
	"fmt"
)

// The sqlite backend keeps every table in one records table. A single
// counter row numbers the rows of all tables, so reading a table in
// sequence order is reading it in append order, and rows of different
// tables can be interleaved back into one timeline.
const sequenceTable = "global_sequence"

func createSequence(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + sequenceTable + ` (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			next_val INTEGER NOT NULL DEFAULT 1
		)`,
		`INSERT OR IGNORE INTO ` + sequenceTable + ` (id, next_val) VALUES (1, 1)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create sequence: %w", err)
		}
	}
	return nil
}

// reserveSequence claims n consecutive sequence numbers inside tx and
// returns the first. The claim commits or rolls back with the rows it
// numbers, so a failed append leaves no gap.
func reserveSequence(ctx context.Context, tx *sql.Tx, n int) (int64, error) {
	var first int64
	err := tx.QueryRowContext(ctx,
		`UPDATE `+sequenceTable+` SET next_val = next_val + ? WHERE id = 1 RETURNING next_val - ?`,
		n, n,
	).Scan(&first)
	if err != nil {
		return 0, fmt.Errorf("reserve %d sequence numbers: %w", n, err)
	}
	return first, nil
}
