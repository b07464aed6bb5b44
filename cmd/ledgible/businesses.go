package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ewhitmore/ledgible/internal/cli"
)

func businessesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "businesses",
		Short: "Manage businesses",
		Long:  `List and create the businesses that transactions are attributed to.`,
	}

	cmd.AddCommand(listBusinessesCmd())
	cmd.AddCommand(addBusinessCmd())

	return cmd
}

func listBusinessesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all businesses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			businesses, err := store.GetBusinesses(ctx)
			if err != nil {
				return fmt.Errorf("failed to get businesses: %w", err)
			}

			if len(businesses) == 0 {
				fmt.Println(cli.InfoStyle.Render("No businesses found. Use 'ledgible businesses add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("Name"),
				cli.BoldStyle.Render("Created"))
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				strings.Repeat("-", 36),
				strings.Repeat("-", 24),
				strings.Repeat("-", 10))

			for _, b := range businesses {
				fmt.Fprintf(w, "%s\t%s\t%s\n", b.ID, b.Name, b.CreatedAt.Format("2006-01-02"))
			}

			return nil
		},
	}
}

func addBusinessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create a new business",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			business, err := store.CreateBusiness(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to create business: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created business %q (%s)", business.Name, business.ID)))
			return nil
		},
	}
}
