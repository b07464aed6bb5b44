// Package engine orchestrates imports, rule-based classification, and the
// manual-correction workflow that turns corrections into new rules.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ewhitmore/ledgible/internal/infer"
	"github.com/ewhitmore/ledgible/internal/model"
	"github.com/ewhitmore/ledgible/internal/pattern"
	"github.com/ewhitmore/ledgible/internal/service"
)

// ErrNilProposal is returned when a commit is attempted without a proposal.
var ErrNilProposal = errors.New("proposal cannot be nil")

// Engine wires storage, the rule matcher, and the rule inferencer together.
// It owns the rolling assignment history; all other state lives in storage.
type Engine struct {
	storage service.Storage

	mu      sync.Mutex
	history infer.History
}

// New creates a new engine over the given storage.
func New(storage service.Storage) *Engine {
	return &Engine{storage: storage}
}

// ImportTransactions classifies a batch of freshly parsed transactions
// against the current rule set and persists them. Duplicates (by hash) are
// skipped by storage.
func (e *Engine) ImportTransactions(ctx context.Context, transactions []model.Transaction) (service.ImportStats, error) {
	stats := service.ImportStats{Total: len(transactions)}
	if len(transactions) == 0 {
		return stats, nil
	}

	rules, err := e.storage.GetRules(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load rules: %w", err)
	}

	classified := pattern.Classify(transactions, rules)
	for _, t := range classified {
		if t.Assigned() {
			stats.AutoClassified++
		}
	}

	saved, err := e.storage.SaveTransactions(ctx, classified)
	if err != nil {
		return stats, fmt.Errorf("failed to save transactions: %w", err)
	}

	stats.Saved = saved
	stats.Duplicates = stats.Total - saved

	slog.Info("Imported transactions",
		"total", stats.Total,
		"saved", stats.Saved,
		"duplicates", stats.Duplicates,
		"auto_classified", stats.AutoClassified)

	return stats, nil
}

// SyncFeed pulls transactions from a bank feed for the given date range and
// runs them through the import pipeline.
func (e *Engine) SyncFeed(ctx context.Context, fetcher service.TransactionFetcher, startDate, endDate time.Time) (service.ImportStats, error) {
	transactions, err := fetcher.GetTransactions(ctx, startDate, endDate)
	if err != nil {
		return service.ImportStats{}, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return e.ImportTransactions(ctx, transactions)
}

// Reclassify runs the matcher over all unassigned transactions and applies
// any matches. Existing assignments are never overwritten. Returns the number
// of transactions that gained a business.
func (e *Engine) Reclassify(ctx context.Context) (int, error) {
	rules, err := e.storage.GetRules(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load rules: %w", err)
	}

	unassigned, err := e.storage.GetTransactions(ctx, service.TransactionFilter{UnassignedOnly: true})
	if err != nil {
		return 0, fmt.Errorf("failed to load transactions: %w", err)
	}

	classified := pattern.Classify(unassigned, rules)

	var assignments []service.Assignment
	for _, t := range classified {
		if t.Assigned() {
			assignments = append(assignments, service.Assignment{
				TransactionID: t.ID,
				BusinessID:    t.BusinessID,
				RuleID:        t.AssignedRule,
			})
		}
	}

	if err := e.storage.ApplyAssignments(ctx, assignments); err != nil {
		return 0, fmt.Errorf("failed to apply assignments: %w", err)
	}

	slog.Info("Reclassified transactions",
		"unassigned", len(unassigned),
		"matched", len(assignments))

	return len(assignments), nil
}

// AssignBusiness records a direct user assignment, then proposes a rule
// covering similar transactions. The assignment itself is persisted
// immediately; the proposal is advisory and must be committed separately.
// A proposal with no candidates means there is nothing to confirm.
func (e *Engine) AssignBusiness(ctx context.Context, transactionID, businessID string) (*model.Proposal, error) {
	if _, err := e.storage.GetBusinessByID(ctx, businessID); err != nil {
		return nil, fmt.Errorf("failed to verify business: %w", err)
	}

	txn, err := e.storage.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}

	if err := e.storage.SetTransactionBusiness(ctx, transactionID, businessID); err != nil {
		return nil, fmt.Errorf("failed to assign business: %w", err)
	}

	all, err := e.storage.GetTransactions(ctx, service.TransactionFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	e.mu.Lock()
	proposal, updated := infer.Propose(*txn, businessID, all, e.history)
	e.history = updated
	e.mu.Unlock()

	slog.Info("Manual assignment recorded",
		"transaction", transactionID,
		"business", businessID,
		"proposed_pattern", proposal.Pattern,
		"candidates", len(proposal.CandidateIDs))

	return &proposal, nil
}

// CommitProposal persists the proposed rule and applies its business to the
// selected candidates. A nil selectedIDs applies to every candidate; an empty
// slice creates the rule without touching any transaction.
func (e *Engine) CommitProposal(ctx context.Context, proposal *model.Proposal, selectedIDs []string) (*model.Rule, []string, error) {
	if proposal == nil {
		return nil, nil, ErrNilProposal
	}

	rule := &model.Rule{
		Pattern:    proposal.Pattern,
		BusinessID: proposal.BusinessID,
	}
	if err := e.storage.CreateRule(ctx, rule); err != nil {
		return nil, nil, fmt.Errorf("failed to create rule: %w", err)
	}

	selected := selectCandidates(proposal.CandidateIDs, selectedIDs)

	assignments := make([]service.Assignment, 0, len(selected))
	for _, id := range selected {
		assignments = append(assignments, service.Assignment{
			TransactionID: id,
			BusinessID:    proposal.BusinessID,
			RuleID:        rule.ID,
		})
	}

	if err := e.storage.ApplyAssignments(ctx, assignments); err != nil {
		return nil, nil, fmt.Errorf("failed to apply proposal: %w", err)
	}

	slog.Info("Committed rule proposal",
		"rule", rule.ID,
		"pattern", rule.Pattern,
		"applied", len(selected))

	return rule, selected, nil
}

// History returns a copy of the current assignment history, most recent first.
func (e *Engine) History() []model.AssignmentEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Events()
}

// selectCandidates intersects the user's selection with the candidate set,
// preserving candidate order. A nil selection means all candidates.
func selectCandidates(candidates, selectedIDs []string) []string {
	if selectedIDs == nil {
		return candidates
	}

	wanted := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		wanted[id] = true
	}

	var selected []string
	for _, id := range candidates {
		if wanted[id] {
			selected = append(selected, id)
		}
	}
	return selected
}
