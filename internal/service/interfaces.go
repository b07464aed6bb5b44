// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/ewhitmore/ledgible/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate      *time.Time
	EndDate        *time.Time
	BusinessID     string
	UnassignedOnly bool
	Limit          int
	Offset         int
}

// Assignment carries a single business attribution to apply to a transaction.
type Assignment struct {
	TransactionID string
	BusinessID    string
	RuleID        string
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	SetTransactionBusiness(ctx context.Context, transactionID, businessID string) error
	ApplyAssignments(ctx context.Context, assignments []Assignment) error
	SetTransactionReviewed(ctx context.Context, transactionID string, reviewed bool) error

	// Rule operations
	CreateRule(ctx context.Context, rule *model.Rule) error
	GetRules(ctx context.Context) ([]model.Rule, error)
	UpdateRule(ctx context.Context, rule *model.Rule) error
	DeleteRule(ctx context.Context, id string, clearAssignments bool) error

	// Business operations
	CreateBusiness(ctx context.Context, name string) (*model.Business, error)
	GetBusinesses(ctx context.Context) ([]model.Business, error)
	GetBusinessByID(ctx context.Context, id string) (*model.Business, error)
	GetBusinessByName(ctx context.Context, name string) (*model.Business, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// TransactionFetcher is the contract for external bank feeds.
type TransactionFetcher interface {
	GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error)
	GetAccounts(ctx context.Context) ([]string, error)
}

// ReportWriter exports a generated report somewhere the user can read it.
type ReportWriter interface {
	Write(ctx context.Context, report *Report) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxAttempts  int
}

// DateRange represents a time period with start and end dates.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// BusinessSummary contains aggregated statistics for one business.
type BusinessSummary struct {
	BusinessID   string  `json:"business_id,omitempty"`
	BusinessName string  `json:"business_name"`
	Expenses     float64 `json:"expenses"`
	Income       float64 `json:"income"`
	Net          float64 `json:"net"`
	Count        int     `json:"count"`
}

// Report is a per-business breakdown of activity over a date range.
type Report struct {
	DateRange  DateRange         `json:"date_range"`
	Businesses []BusinessSummary `json:"businesses"`
	Unassigned BusinessSummary   `json:"unassigned"`
}

// ImportStats shows the results of an import run.
type ImportStats struct {
	Total          int
	Saved          int
	Duplicates     int
	AutoClassified int
}
