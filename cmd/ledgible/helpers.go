package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ewhitmore/ledgible/internal/common"
	"github.com/ewhitmore/ledgible/internal/config"
	"github.com/ewhitmore/ledgible/internal/model"
	"github.com/ewhitmore/ledgible/internal/service"
	"github.com/ewhitmore/ledgible/internal/storage"
)

// initStorage opens the database and brings the schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/ledgible/ledgible.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// resolveBusiness accepts either a business ID or a business name.
func resolveBusiness(ctx context.Context, store service.Storage, ref string) (*model.Business, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("business is required: %w", common.ErrInvalidConfig)
	}

	if business, err := store.GetBusinessByID(ctx, ref); err == nil {
		return business, nil
	}

	business, err := store.GetBusinessByName(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("no business with ID or name %q: %w", ref, common.ErrNotFound)
	}
	return business, nil
}
