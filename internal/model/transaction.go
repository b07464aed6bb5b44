// Package model defines the core data structures for the ledgible application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Transaction represents a single imported transaction from any source.
type Transaction struct {
	Date          time.Time `json:"date"`
	ID            string    `json:"id"`
	Description   string    `json:"description"`
	BusinessID    string    `json:"business_id,omitempty"`
	AssignedRule  string    `json:"assigned_rule_id,omitempty"`
	CardMember    string    `json:"card_member,omitempty"`
	AccountNumber string    `json:"account_number,omitempty"`
	Hash          string    `json:"hash"`
	Amount        float64   `json:"amount"`
	Reviewed      bool      `json:"reviewed"`
}

// Assigned reports whether the transaction has been attributed to a business.
func (t *Transaction) Assigned() bool {
	return t.BusinessID != ""
}

// IsExpense reports whether the transaction is an expense (negative amount).
func (t *Transaction) IsExpense() bool {
	return t.Amount < 0
}

// GenerateHash creates a unique hash for duplicate detection across imports.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Description,
		t.AccountNumber)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Validate checks that the transaction has the fields persistence requires.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("transaction ID is required")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction date is required")
	}
	if t.Description == "" {
		return fmt.Errorf("transaction description is required")
	}
	if t.Reviewed && t.BusinessID == "" {
		return fmt.Errorf("transaction cannot be reviewed before a business is assigned")
	}
	return nil
}
