package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/ewhitmore/ledgible/internal/common"
	"github.com/ewhitmore/ledgible/internal/model"
)

// CreateBusiness creates a new business with a generated id.
func (s *SQLiteStorage) CreateBusiness(ctx context.Context, name string) (*model.Business, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	business := &model.Business{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO businesses (id, name) VALUES (?, ?)",
		business.ID, business.Name)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("business %q: %w", business.Name, common.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to create business: %w", err)
	}

	return business, nil
}

// GetBusinesses returns all businesses ordered by name.
func (s *SQLiteStorage) GetBusinesses(ctx context.Context) ([]model.Business, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM businesses ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query businesses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var businesses []model.Business
	for rows.Next() {
		var b model.Business
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan business: %w", err)
		}
		businesses = append(businesses, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate businesses: %w", err)
	}

	return businesses, nil
}

// GetBusinessByID retrieves a business by id.
func (s *SQLiteStorage) GetBusinessByID(ctx context.Context, id string) (*model.Business, error) {
	return s.getBusiness(ctx, "id", id)
}

// GetBusinessByName retrieves a business by its exact name.
func (s *SQLiteStorage) GetBusinessByName(ctx context.Context, name string) (*model.Business, error) {
	return s.getBusiness(ctx, "name", name)
}

func (s *SQLiteStorage) getBusiness(ctx context.Context, column, value string) (*model.Business, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(value, column); err != nil {
		return nil, err
	}

	var b model.Business
	query := fmt.Sprintf("SELECT id, name, created_at FROM businesses WHERE %s = ?", column)
	err := s.db.QueryRowContext(ctx, query, value).Scan(&b.ID, &b.Name, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("business %s: %w", value, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get business: %w", err)
	}

	return &b, nil
}
