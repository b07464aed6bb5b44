package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ewhitmore/ledgible/internal/cli"
	"github.com/ewhitmore/ledgible/internal/engine"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify",
		Short: "Re-run the rules over unassigned transactions",
		Long: `Apply the current rule set to every transaction that has no business yet.
Useful after adding rules by hand or deleting a bad one.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			assigned, err := engine.New(store).Reclassify(ctx)
			if err != nil {
				return fmt.Errorf("classification failed: %w", err)
			}

			if assigned == 0 {
				fmt.Println(cli.FormatInfo("Nothing to classify."))
				return nil
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Classified %d transactions.", assigned)))
			return nil
		},
	}
}
