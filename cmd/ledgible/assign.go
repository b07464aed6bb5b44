package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ewhitmore/ledgible/internal/cli"
	"github.com/ewhitmore/ledgible/internal/engine"
	"github.com/ewhitmore/ledgible/internal/model"
	"github.com/ewhitmore/ledgible/internal/service"
	"github.com/ewhitmore/ledgible/internal/tui"
)

func assignCmd() *cobra.Command {
	var (
		plain bool
		yes   bool
	)

	cmd := &cobra.Command{
		Use:   "assign <transaction-id> <business>",
		Short: "Assign a transaction to a business and review the inferred rule",
		Long: `Assign a transaction to a business by hand. The assignment is saved
immediately. If a pattern can be inferred from your recent corrections, a
rule proposal is shown for review; accepting it creates the rule and applies
it to the other matching transactions you selected. Canceling the review
keeps the manual assignment.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssign(cmd.Context(), args[0], args[1], plain, yes)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "use the line-based prompt instead of the full-screen review")
	cmd.Flags().BoolVar(&yes, "yes", false, "accept the proposal and apply to all candidates without review")

	return cmd
}

func runAssign(ctx context.Context, transactionID, businessRef string, plain, yes bool) error {
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	business, err := resolveBusiness(ctx, store, businessRef)
	if err != nil {
		return err
	}

	eng := engine.New(store)
	proposal, err := eng.AssignBusiness(ctx, transactionID, business.ID)
	if err != nil {
		return fmt.Errorf("failed to assign transaction: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Assigned transaction %s to %s.", transactionID, business.Name)))

	if proposal == nil || proposal.Pattern == "" {
		return nil
	}

	candidates, err := loadCandidates(ctx, store, proposal)
	if err != nil {
		return err
	}

	accepted, selectedIDs, err := reviewProposal(ctx, proposal, business.Name, candidates, plain, yes)
	if err != nil {
		return err
	}
	if !accepted {
		return nil
	}

	rule, appliedIDs, err := eng.CommitProposal(ctx, proposal, selectedIDs)
	if err != nil {
		return fmt.Errorf("failed to commit rule: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"Created rule %q → %s and applied it to %d transactions.",
		rule.Pattern, business.Name, len(appliedIDs))))
	return nil
}

func loadCandidates(ctx context.Context, store service.Storage, proposal *model.Proposal) ([]model.Transaction, error) {
	candidates := make([]model.Transaction, 0, len(proposal.CandidateIDs))
	for _, id := range proposal.CandidateIDs {
		txn, err := store.GetTransactionByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load candidate %s: %w", id, err)
		}
		candidates = append(candidates, *txn)
	}
	return candidates, nil
}

func reviewProposal(ctx context.Context, proposal *model.Proposal, businessName string, candidates []model.Transaction, plain, yes bool) (bool, []string, error) {
	if yes {
		return true, nil, nil
	}

	if plain {
		prompter := cli.NewCLIPrompter(os.Stdin, os.Stdout)
		result, err := prompter.ReviewProposal(ctx, proposal, businessName, candidates)
		if err != nil {
			return false, nil, err
		}
		return result.Accepted, result.SelectedIDs, nil
	}

	outcome, err := tui.RunReview(ctx, proposal, businessName, candidates)
	if err != nil {
		return false, nil, err
	}
	return outcome.Accepted, outcome.SelectedIDs, nil
}
