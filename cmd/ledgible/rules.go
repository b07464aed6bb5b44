package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ewhitmore/ledgible/internal/cli"
	"github.com/ewhitmore/ledgible/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage classification rules",
		Long:  `List, create, and delete the description-matching rules that classify transactions.`,
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(addRuleCmd())
	cmd.AddCommand(deleteRuleCmd())

	return cmd
}

func listRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.GetRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to get rules: %w", err)
			}

			if len(rules) == 0 {
				fmt.Println(cli.InfoStyle.Render("No rules yet. Rules are created from manual assignments, or with 'ledgible rules add'."))
				return nil
			}

			businesses, err := store.GetBusinesses(ctx)
			if err != nil {
				return fmt.Errorf("failed to get businesses: %w", err)
			}
			names := make(map[string]string, len(businesses))
			for _, b := range businesses {
				names[b.ID] = b.Name
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("Pattern"),
				cli.BoldStyle.Render("Business"),
				cli.BoldStyle.Render("Created"))

			for _, r := range rules {
				pattern := r.Pattern
				if !r.Matchable() {
					// Stored but too short to ever match.
					pattern = cli.WarningStyle.Render(pattern + " (inactive)")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					r.ID, pattern, names[r.BusinessID], r.CreatedAt.Format("2006-01-02"))
			}

			return nil
		},
	}
}

func addRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <pattern> <business>",
		Short: "Create a rule mapping a description pattern to a business",
		Long: fmt.Sprintf(`Create a classification rule by hand.

The pattern matches transaction descriptions case-insensitively and must be
at least %d characters long to ever match anything.`, model.MinPatternLength),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			business, err := resolveBusiness(ctx, store, args[1])
			if err != nil {
				return err
			}

			rule := &model.Rule{
				Pattern:    args[0],
				BusinessID: business.ID,
			}
			if err := store.CreateRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}

			if !rule.Matchable() {
				fmt.Println(cli.FormatWarning(fmt.Sprintf(
					"Pattern %q is shorter than %d characters and will never match.", rule.Pattern, model.MinPatternLength)))
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created rule %q → %s", rule.Pattern, business.Name)))
			return nil
		},
	}
}

func deleteRuleCmd() *cobra.Command {
	var clearAssignments bool

	cmd := &cobra.Command{
		Use:   "delete <rule-id>",
		Short: "Delete a rule",
		Long: strings.TrimSpace(`
Delete a classification rule. By default, transactions the rule classified
keep their business. With --clear-assignments those transactions return to
the unassigned pool; manual assignments are never touched.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRule(ctx, args[0], clearAssignments); err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Rule deleted."))
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearAssignments, "clear-assignments", false, "also unassign transactions this rule classified")
	return cmd
}
