package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ewhitmore/ledgible/internal/common"
	"github.com/ewhitmore/ledgible/internal/model"
)

// CreateRule persists a new classification rule. The pattern is stored
// lower-cased since matching is case-insensitive anyway.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	var businessCount int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM businesses WHERE id = ?", rule.BusinessID).Scan(&businessCount)
	if err != nil {
		return fmt.Errorf("failed to verify business: %w", err)
	}
	if businessCount == 0 {
		return fmt.Errorf("business %s: %w", rule.BusinessID, common.ErrNotFound)
	}

	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	rule.Pattern = strings.ToLower(rule.Pattern)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rules (id, pattern, business_id) VALUES (?, ?, ?)
	`, rule.ID, rule.Pattern, rule.BusinessID)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	rule.CreatedAt = time.Now()
	return nil
}

// GetRules returns all rules, newest first.
func (s *SQLiteStorage) GetRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pattern, business_id, created_at
		FROM rules
		ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		var r model.Rule
		if err := rows.Scan(&r.ID, &r.Pattern, &r.BusinessID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}

	return rules, nil
}

// UpdateRule changes a rule's pattern or business.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}
	if rule.ID == "" {
		return fmt.Errorf("%w: rule ID", ErrEmptyString)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE rules SET pattern = ?, business_id = ? WHERE id = ?
	`, strings.ToLower(rule.Pattern), rule.BusinessID, rule.ID)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("rule %s: %w", rule.ID, common.ErrNotFound)
	}

	return nil
}

// DeleteRule removes a rule. When clearAssignments is set, transactions that
// were assigned solely via this rule have their business cleared as well;
// manual assignments are never touched.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id string, clearAssignments bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if clearAssignments {
		if _, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET business_id = NULL, assigned_rule_id = NULL, reviewed = 0
			WHERE assigned_rule_id = ?
		`, id); err != nil {
			return fmt.Errorf("failed to clear rule assignments: %w", err)
		}
	} else {
		// Keep the attribution but drop the dangling provenance.
		if _, err := tx.ExecContext(ctx, `
			UPDATE transactions SET assigned_rule_id = NULL WHERE assigned_rule_id = ?
		`, id); err != nil {
			return fmt.Errorf("failed to detach rule assignments: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("rule %s: %w", id, common.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rule delete: %w", err)
	}

	return nil
}

// GetRuleByID retrieves a single rule.
func (s *SQLiteStorage) GetRuleByID(ctx context.Context, id string) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var r model.Rule
	err := s.db.QueryRowContext(ctx, `
		SELECT id, pattern, business_id, created_at FROM rules WHERE id = ?
	`, id).Scan(&r.ID, &r.Pattern, &r.BusinessID, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rule %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return &r, nil
}
