package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ewhitmore/ledgible/internal/model"
)

// RunReview runs the full-screen review session and returns the outcome.
// Cancellation (from the user or the context) yields an unaccepted outcome.
func RunReview(ctx context.Context, proposal *model.Proposal, businessName string, candidates []model.Transaction) (Outcome, error) {
	m := NewReviewModel(proposal, businessName, candidates)

	program := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return Outcome{}, fmt.Errorf("review session failed: %w", err)
	}

	reviewed, ok := final.(ReviewModel)
	if !ok {
		return Outcome{}, fmt.Errorf("unexpected model type %T", final)
	}

	return reviewed.Outcome(), nil
}
