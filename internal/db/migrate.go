package db

import (
	"database/sql"
	"fmt"
)

// migrations are executed in order on every open; statements must be
// idempotent (IF NOT EXISTS) since there is no schema version table.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS session_state (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
