package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ewhitmore/ledgible/internal/cli"
	"github.com/ewhitmore/ledgible/internal/config"
	"github.com/ewhitmore/ledgible/internal/engine"
	"github.com/ewhitmore/ledgible/internal/plaid"
	"github.com/ewhitmore/ledgible/internal/service"
	"github.com/ewhitmore/ledgible/internal/simplefin"
)

func openFeed(source string) (service.TransactionFetcher, error) {
	switch source {
	case "", "plaid":
		return plaid.NewClient(config.LoadPlaidConfig())
	case "simplefin":
		token := viper.GetString("simplefin.token")
		if token == "" {
			token = os.Getenv("SIMPLEFIN_TOKEN")
		}
		if token == "" {
			return nil, fmt.Errorf("no SimpleFIN token: set simplefin.token in config or SIMPLEFIN_TOKEN")
		}
		return simplefin.NewClient(token)
	default:
		return nil, fmt.Errorf("unknown feed source %q (want plaid or simplefin)", source)
	}
}

func feedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Pull transactions from the bank feed",
		Long:  `Connect to Plaid and pull transactions directly from linked accounts.`,
	}

	cmd.AddCommand(feedSyncCmd())
	cmd.AddCommand(feedAccountsCmd())
	cmd.AddCommand(feedLinkCmd())
	cmd.AddCommand(feedExchangeCmd())

	return cmd
}

func feedSyncCmd() *cobra.Command {
	var (
		startDate string
		endDate   string
		source    string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Import transactions from the bank feed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			client, err := openFeed(source)
			if err != nil {
				return fmt.Errorf("failed to create bank feed client: %w", err)
			}

			end := time.Now()
			start := end.AddDate(0, -1, 0)
			if startDate != "" {
				if start, err = time.Parse("2006-01-02", startDate); err != nil {
					return fmt.Errorf("invalid --start %q: expected YYYY-MM-DD", startDate)
				}
			}
			if endDate != "" {
				if end, err = time.Parse("2006-01-02", endDate); err != nil {
					return fmt.Errorf("invalid --end %q: expected YYYY-MM-DD", endDate)
				}
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := engine.New(store).SyncFeed(ctx, client, start, end)
			if err != nil {
				return fmt.Errorf("failed to sync bank feed: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Imported %d of %d transactions (%d duplicates skipped, %d auto-classified).",
				stats.Saved, stats.Total, stats.Duplicates, stats.AutoClassified)))
			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "earliest date (YYYY-MM-DD, default one month ago)")
	cmd.Flags().StringVar(&endDate, "end", "", "latest date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&source, "source", "plaid", "feed source: plaid or simplefin")

	return cmd
}

func feedAccountsCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List linked bank accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := openFeed(source)
			if err != nil {
				return fmt.Errorf("failed to create bank feed client: %w", err)
			}

			accounts, err := client.GetAccounts(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch accounts: %w", err)
			}

			if len(accounts) == 0 {
				fmt.Println(cli.InfoStyle.Render("No linked accounts. Run 'ledgible feed link' first."))
				return nil
			}

			for _, account := range accounts {
				fmt.Println("  " + account)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "plaid", "feed source: plaid or simplefin")

	return cmd
}

func feedLinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link",
		Short: "Start the account linking flow",
		Long: `Create a Plaid Link token. Open the printed token in the Plaid Link flow,
then exchange the resulting public token:

  ledgible feed link
  ledgible feed exchange <public-token>`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := plaid.NewClient(config.LoadPlaidConfig())
			if err != nil {
				return fmt.Errorf("failed to create bank feed client: %w", err)
			}

			token, err := client.CreateLinkToken(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to create link token: %w", err)
			}

			fmt.Println(cli.FormatInfo("Link token created:"))
			fmt.Println("  " + token)
			return nil
		},
	}
}

func feedExchangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exchange <public-token>",
		Short: "Exchange a public token for an access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := plaid.NewClient(config.LoadPlaidConfig())
			if err != nil {
				return fmt.Errorf("failed to create bank feed client: %w", err)
			}

			accessToken, itemID, err := client.ExchangePublicToken(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to exchange public token: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Account linked."))
			fmt.Printf("  access token: %s\n  item id:      %s\n", accessToken, itemID)
			fmt.Println(cli.InfoStyle.Render("Save the access token under plaid.access_token in your config."))
			return nil
		},
	}
}
