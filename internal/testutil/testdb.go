package testutil

import (
	"database/sql"
	"testing"

	"github.com/pantrykit/scanbatch/internal/db"
	"github.com/pantrykit/scanbatch/internal/repository"
)

// NewTestDB creates an in-memory SQLite database with all migrations
// applied. The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestStateRepo creates a StateRepo backed by a fresh in-memory database.
func NewTestStateRepo(t *testing.T) *repository.SQLiteStateRepo {
	t.Helper()
	return repository.NewSQLiteStateRepo(NewTestDB(t))
}
