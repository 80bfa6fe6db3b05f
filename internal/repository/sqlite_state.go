package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteStateRepo implements StateRepo using a SQLite database.
type SQLiteStateRepo struct {
	db *sql.DB
}

// NewSQLiteStateRepo creates a new SQLiteStateRepo.
func NewSQLiteStateRepo(db *sql.DB) *SQLiteStateRepo {
	return &SQLiteStateRepo{db: db}
}

func (r *SQLiteStateRepo) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM session_state WHERE key = ?`
	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("session state %q: %w", key, ErrNotFound)
		}
		return "", fmt.Errorf("reading session state %q: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteStateRepo) Set(ctx context.Context, key, value string) error {
	query := `INSERT INTO session_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing session state %q: %w", key, err)
	}
	return nil
}

func (r *SQLiteStateRepo) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM session_state WHERE key = ?`
	_, err := r.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("deleting session state %q: %w", key, err)
	}
	return nil
}
