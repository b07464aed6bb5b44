package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ewhitmore/ledgible/internal/cli"
	"github.com/ewhitmore/ledgible/internal/sheets"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
	}

	cmd.AddCommand(authSheetsCmd())

	return cmd
}

func authSheetsCmd() *cobra.Command {
	var (
		clientID     string
		clientSecret string
	)

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authenticate with Google Sheets",
		Long: `Run the browser OAuth2 flow for Google Sheets and save the refresh
token. Needs an OAuth2 client ID and secret from the Google Cloud console,
via flags, sheets.client_id/sheets.client_secret in config, or the
GOOGLE_SHEETS_CLIENT_ID/GOOGLE_SHEETS_CLIENT_SECRET environment variables.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if clientID == "" {
				clientID = viper.GetString("sheets.client_id")
			}
			if clientSecret == "" {
				clientSecret = viper.GetString("sheets.client_secret")
			}
			if clientID == "" {
				clientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
			}
			if clientSecret == "" {
				clientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
			}
			if clientID == "" || clientSecret == "" {
				return fmt.Errorf("OAuth2 credentials not found: set sheets.client_id and sheets.client_secret in config, or pass --client-id and --client-secret")
			}

			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("failed to find config directory: %w", err)
			}
			tokenFile := filepath.Join(configDir, "ledgible", "sheets-token.json")

			token, err := sheets.GetOrCreateToken(cmd.Context(), sheets.OAuth2Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenFile:    tokenFile,
			})
			if err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Google Sheets authentication complete."))
			fmt.Println(cli.FormatInfo("Add this to your config.yaml:"))
			fmt.Printf("sheets:\n  client_id: %q\n  client_secret: %q\n  refresh_token: %q\n",
				clientID, clientSecret, token.RefreshToken)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client ID")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret")

	return cmd
}
