// Package testutil provides shared test infrastructure: a migrated
// throwaway database plus helpers for seeding businesses and transactions.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ewhitmore/ledgible/internal/model"
	"github.com/ewhitmore/ledgible/internal/storage"
)

// TestDB bundles a migrated SQLite store with seeding helpers that fail
// the test on error.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a migrated SQLite database in a temp directory.
// Cleanup is registered automatically.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return &TestDB{Storage: store, t: t}
}

// MustCreateBusiness creates a business or fails the test.
func (db *TestDB) MustCreateBusiness(name string) *model.Business {
	db.t.Helper()

	business, err := db.Storage.CreateBusiness(context.Background(), name)
	if err != nil {
		db.t.Fatalf("failed to create business %q: %v", name, err)
	}
	return business
}

// MustSaveTransactions persists the transactions or fails the test.
func (db *TestDB) MustSaveTransactions(txns ...model.Transaction) {
	db.t.Helper()

	if _, err := db.Storage.SaveTransactions(context.Background(), txns); err != nil {
		db.t.Fatalf("failed to save transactions: %v", err)
	}
}

// MustCreateRule creates a classification rule or fails the test.
func (db *TestDB) MustCreateRule(pattern, businessID string) *model.Rule {
	db.t.Helper()

	rule := &model.Rule{Pattern: pattern, BusinessID: businessID}
	if err := db.Storage.CreateRule(context.Background(), rule); err != nil {
		db.t.Fatalf("failed to create rule %q: %v", pattern, err)
	}
	return rule
}
