package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ewhitmore/ledgible/internal/cli"
	"github.com/ewhitmore/ledgible/internal/service"
)

func transactionsCmd() *cobra.Command {
	var (
		startDate  string
		endDate    string
		business   string
		unassigned bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			filter := service.TransactionFilter{
				UnassignedOnly: unassigned,
				Limit:          limit,
			}
			if startDate != "" {
				t, parseErr := time.Parse("2006-01-02", startDate)
				if parseErr != nil {
					return fmt.Errorf("invalid --start %q: expected YYYY-MM-DD", startDate)
				}
				filter.StartDate = &t
			}
			if endDate != "" {
				t, parseErr := time.Parse("2006-01-02", endDate)
				if parseErr != nil {
					return fmt.Errorf("invalid --end %q: expected YYYY-MM-DD", endDate)
				}
				t = t.Add(24*time.Hour - time.Second)
				filter.EndDate = &t
			}
			if business != "" {
				b, resolveErr := resolveBusiness(ctx, store, business)
				if resolveErr != nil {
					return resolveErr
				}
				filter.BusinessID = b.ID
			}

			transactions, err := store.GetTransactions(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to get transactions: %w", err)
			}

			if len(transactions) == 0 {
				fmt.Println(cli.InfoStyle.Render("No transactions match."))
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

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("Date"),
				cli.BoldStyle.Render("Description"),
				cli.BoldStyle.Render("Amount"),
				cli.BoldStyle.Render("Business"),
				cli.BoldStyle.Render("Reviewed"))

			for _, t := range transactions {
				businessName := cli.SubtleStyle.Render("(unassigned)")
				if t.Assigned() {
					businessName = names[t.BusinessID]
				}
				reviewed := ""
				if t.Reviewed {
					reviewed = cli.SuccessIcon
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%s\n",
					t.ID, t.Date.Format("2006-01-02"), t.Description, t.Amount, businessName, reviewed)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "earliest date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "latest date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&business, "business", "", "filter by business ID or name")
	cmd.Flags().BoolVar(&unassigned, "unassigned", false, "only transactions without a business")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows to show (0 = all)")

	return cmd
}
