package main

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ewhitmore/ledgible/internal/api"
	"github.com/ewhitmore/ledgible/internal/certs"
	"github.com/ewhitmore/ledgible/internal/config"
	"github.com/ewhitmore/ledgible/internal/engine"
	"github.com/ewhitmore/ledgible/internal/plaid"
)

func serveCmd() *cobra.Command {
	var (
		addr    string
		origins []string
		useTLS  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve the REST API used by web and mobile frontends.

Bank feed link endpoints are only available when Plaid credentials are
configured; without them those routes return 503.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cfg := api.DefaultConfig()
			if addr != "" {
				cfg.Addr = addr
			}
			if len(origins) > 0 {
				cfg.AllowedOrigins = origins
			}

			if useTLS {
				configDir, dirErr := os.UserConfigDir()
				if dirErr != nil {
					return fmt.Errorf("failed to find config directory: %w", dirErr)
				}
				manager := certs.NewFileManager(filepath.Join(configDir, "ledgible", "certs"))
				cert, certErr := manager.GetOrCreateCertificate()
				if certErr != nil {
					return fmt.Errorf("failed to get TLS certificate: %w", certErr)
				}
				cfg.TLS = &tls.Config{
					Certificates: []tls.Certificate{cert},
					MinVersion:   tls.VersionTLS12,
				}
			}

			var linker api.LinkTokenProvider
			if client, clientErr := plaid.NewClient(config.LoadPlaidConfig()); clientErr == nil {
				linker = client
			} else {
				slog.Debug("bank feed disabled", "error", clientErr)
			}

			server := api.NewServer(engine.New(store), store, linker, cfg, slog.Default())

			fmt.Printf("Listening on %s\n", cfg.Addr)
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringSliceVar(&origins, "origin", nil, "allowed CORS origin (repeatable)")
	cmd.Flags().BoolVar(&useTLS, "tls", false, "serve over HTTPS with a self-signed localhost certificate")

	return cmd
}
