package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hgm-king/ostrich-api/pkg/config"
	"github.com/hgm-king/ostrich-api/pkg/gateway"
	"github.com/hgm-king/ostrich-api/pkg/observability"
	"github.com/hgm-king/ostrich-api/pkg/provider"
)

var (
	host string
	port int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the authentication gateway",
	Long: `Start the authentication gateway.

Examples:
  # Start with the default config file
  ostrich-api serve

  # Start with a custom config
  ostrich-api serve -c /path/to/config.yaml

  # Override the listen port
  ostrich-api serve --port 8443`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&host, "host", "",
		"Host to bind to (overrides config)")
	serveCmd.Flags().IntVar(&port, "port", 0,
		"Port to bind to (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if host != "" {
		cfg.Server.Host = host
	}

	if port != 0 {
		cfg.Server.Port = port
	}

	log.WithFields(logrus.Fields{
		"host":   cfg.Server.Host,
		"port":   cfg.Server.Port,
		"tls":    cfg.Server.TLS.Enabled,
		"region": cfg.Provider.Region,
	}).Info("Starting ostrich-api")

	obsSvc := observability.NewService(log, cfg.Observability)
	if err := obsSvc.Start(ctx); err != nil {
		return fmt.Errorf("starting observability: %w", err)
	}

	defer func() {
		if stopErr := obsSvc.Stop(); stopErr != nil {
			log.WithError(stopErr).Error("Failed to stop observability service")
		}
	}()

	client, err := provider.NewCognitoClient(ctx, log, cfg.Provider)
	if err != nil {
		return fmt.Errorf("creating identity provider client: %w", err)
	}

	svc := gateway.NewService(log, cfg, client)

	// Blocks until the context is cancelled.
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("running gateway: %w", err)
	}

	log.Info("Shutting down...")

	return svc.Stop()
}
