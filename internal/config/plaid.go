package config

import (
	"os"

	"github.com/spf13/viper"

	ledgplaid "github.com/ewhitmore/ledgible/internal/plaid"
)

// LoadPlaidConfig loads Plaid credentials from Viper with PLAID_* environment
// variables as a fallback. The access token may be empty; the client then
// only supports the account linking flow.
func LoadPlaidConfig() ledgplaid.Config {
	cfg := ledgplaid.Config{
		ClientID:    viper.GetString("plaid.client_id"),
		Secret:      viper.GetString("plaid.secret"),
		Environment: viper.GetString("plaid.environment"),
		AccessToken: viper.GetString("plaid.access_token"),
	}

	if cfg.ClientID == "" {
		cfg.ClientID = os.Getenv("PLAID_CLIENT_ID")
	}
	if cfg.Secret == "" {
		cfg.Secret = os.Getenv("PLAID_SECRET")
	}
	if cfg.Environment == "" {
		cfg.Environment = os.Getenv("PLAID_ENVIRONMENT")
	}
	if cfg.AccessToken == "" {
		cfg.AccessToken = os.Getenv("PLAID_ACCESS_TOKEN")
	}
	if cfg.Environment == "" {
		cfg.Environment = "sandbox"
	}

	return cfg
}
