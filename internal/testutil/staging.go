package testutil

import (
	"context"
	"testing"

	"github.com/fenwick/hindsight/internal/model"
	"github.com/fenwick/hindsight/internal/storage"
)

// SetupStagingStore creates a SQLite staging store at path with migrations
// applied and, when apps is non-empty, the dataset staged. It registers
// cleanup and fails the test on any setup error. Pass ":memory:" when the
// store only needs to outlive the returned handle.
func SetupStagingStore(t *testing.T, path string, apps []model.BandedApplication) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("failed to create staging store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if len(apps) > 0 {
		if err := store.ReplaceApplications(ctx, apps); err != nil {
			t.Fatalf("failed to stage dataset: %v", err)
		}
	}
	return store
}
