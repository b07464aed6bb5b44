package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ewhitmore/ledgible/internal/common"
	"github.com/ewhitmore/ledgible/internal/model"
	"github.com/ewhitmore/ledgible/internal/service"
)

// SaveTransactions stores a batch of transactions, skipping any whose hash is
// already present. Returns the number actually inserted.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransactions(transactions); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, hash, date, description, amount,
			business_id, assigned_rule_id, card_member, account_number, reviewed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	saved := 0
	for i := range transactions {
		t := &transactions[i]
		if t.Hash == "" {
			t.Hash = t.GenerateHash()
		}

		result, err := stmt.ExecContext(ctx,
			t.ID, t.Hash, t.Date, t.Description, t.Amount,
			nullable(t.BusinessID), nullable(t.AssignedRule),
			t.CardMember, t.AccountNumber, t.Reviewed,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read rows affected: %w", err)
		}
		saved += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}

	return saved, nil
}

// GetTransactions returns transactions matching the filter, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, hash, date, description, amount,
			business_id, assigned_rule_id, card_member, account_number, reviewed
		FROM transactions
	`

	var conditions []string
	var args []any

	if filter.StartDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *filter.EndDate)
	}
	if filter.BusinessID != "" {
		conditions = append(conditions, "business_id = ?")
		args = append(args, filter.BusinessID)
	}
	if filter.UnassignedOnly {
		conditions = append(conditions, "business_id IS NULL")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, id ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

// GetTransactionByID retrieves a single transaction.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, hash, date, description, amount,
			business_id, assigned_rule_id, card_member, account_number, reviewed
		FROM transactions
		WHERE id = ?
	`, id)

	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
		}
		return nil, err
	}

	return &t, nil
}

// SetTransactionBusiness records a direct user assignment. Manual assignments
// always clear rule provenance; an empty businessID clears the assignment
// entirely, which also resets the reviewed flag.
func (s *SQLiteStorage) SetTransactionBusiness(ctx context.Context, transactionID, businessID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}

	var result sql.Result
	var err error
	if businessID == "" {
		result, err = s.db.ExecContext(ctx, `
			UPDATE transactions
			SET business_id = NULL, assigned_rule_id = NULL, reviewed = 0
			WHERE id = ?
		`, transactionID)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE transactions
			SET business_id = ?, assigned_rule_id = NULL
			WHERE id = ?
		`, businessID, transactionID)
	}
	if err != nil {
		return fmt.Errorf("failed to set transaction business: %w", err)
	}

	return requireRowAffected(result, transactionID)
}

// ApplyAssignments applies a batch of rule-derived assignments atomically.
func (s *SQLiteStorage) ApplyAssignments(ctx context.Context, assignments []service.Assignment) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(assignments) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE transactions
		SET business_id = ?, assigned_rule_id = ?
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare update: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, a := range assignments {
		if a.TransactionID == "" || a.BusinessID == "" {
			return fmt.Errorf("%w: assignment requires transaction and business ids", ErrInvalidTransaction)
		}
		if _, err := stmt.ExecContext(ctx, a.BusinessID, nullable(a.RuleID), a.TransactionID); err != nil {
			return fmt.Errorf("failed to assign transaction %s: %w", a.TransactionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit assignments: %w", err)
	}

	return nil
}

// SetTransactionReviewed flags a transaction as reviewed. Only assigned
// transactions can be reviewed.
func (s *SQLiteStorage) SetTransactionReviewed(ctx context.Context, transactionID string, reviewed bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}

	if reviewed {
		var businessID sql.NullString
		err := s.db.QueryRowContext(ctx,
			"SELECT business_id FROM transactions WHERE id = ?", transactionID).Scan(&businessID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("transaction %s: %w", transactionID, common.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check transaction: %w", err)
		}
		if !businessID.Valid {
			return fmt.Errorf("transaction %s: %w", transactionID, ErrNotReviewable)
		}
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET reviewed = ? WHERE id = ?", reviewed, transactionID)
	if err != nil {
		return fmt.Errorf("failed to set reviewed flag: %w", err)
	}

	return requireRowAffected(result, transactionID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var t model.Transaction
	var businessID, assignedRule, cardMember, accountNumber sql.NullString

	err := row.Scan(
		&t.ID, &t.Hash, &t.Date, &t.Description, &t.Amount,
		&businessID, &assignedRule, &cardMember, &accountNumber, &t.Reviewed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("failed to scan transaction: %w", err)
	}

	t.BusinessID = businessID.String
	t.AssignedRule = assignedRule.String
	t.CardMember = cardMember.String
	t.AccountNumber = accountNumber.String

	return t, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func requireRowAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return nil
}
