package repository

import (
	"context"
	"testing"

	"github.com/GoSim-25-26J-441/portfolio-backend/internal/storage"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/storage/sqlite"
)

// setupTestDB creates a named shared in-memory SQLite database with the
// schema applied. The name comes from t.Name() so tests stay isolated.
func setupTestDB(t *testing.T) *storage.DB {
	t.Helper()

	db, err := sqlite.OpenMemory(context.Background(), t.Name())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := storage.RunMigrations(db); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}
