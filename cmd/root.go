// Package cmd defines the CLI commands for the sitesnap executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/empathyhealth/sitesnap/internal/config"
	"github.com/empathyhealth/sitesnap/internal/logging"
)

var cfgFile string

// app holds the shared state every subcommand needs.
type app struct {
	cfg    config.Config
	logger *zap.Logger
}

var current *app

func resolveApp() (*app, error) {
	if current == nil {
		return nil, fmt.Errorf("application services not initialized")
	}
	return current, nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitesnap",
		Short: "Prerendering and SEO toolkit for the clinic marketing site.",
		Long: `sitesnap renders the single-page marketing site into static HTML
snapshots for search engine crawlers, verifies the result, validates
redirect rules, and serves the site with bot-aware snapshot delivery.`,

		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			current = &app{cfg: cfg, logger: logger}
			return nil
		},

		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if current != nil {
				_ = current.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default uses SITESNAP_* env vars)")

	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newValidateRedirectsCmd())
	cmd.AddCommand(newExportRedirectsCmd())
	cmd.AddCommand(newAuditLinksCmd())
	cmd.AddCommand(newSitemapCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
