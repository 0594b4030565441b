package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/empathyhealth/sitesnap/internal/cache"
	"github.com/empathyhealth/sitesnap/internal/canonical"
	"github.com/empathyhealth/sitesnap/internal/logging"
	"github.com/empathyhealth/sitesnap/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site with canonical redirects and bot-aware snapshots",
		Long: `Runs the HTTP server: canonicalizes request URLs, serves prerendered
snapshots to search engine crawlers, and falls back to the SPA shell for
everyone else.`,

		RunE: runServeCommand,
	}
	return cmd
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger := logging.ForComponent(a.logger, "server")

	store, err := buildSnapshotStore(a.cfg)
	if err != nil {
		return err
	}
	contentStore, err := buildContentStore(ctx, a.cfg, logger)
	if err != nil {
		return err
	}
	defer contentStore.Close()

	table, err := buildRuleTable(ctx, a.cfg, contentStore, logger)
	if err != nil {
		return err
	}
	resolver := canonical.NewResolver(a.cfg.Canonical.PreferredScheme, a.cfg.Canonical.PreferredHost, table)

	var blogSlugs *cache.StringSet
	if contentStore != nil {
		blogSlugs = cache.NewStringSet(a.cfg.Canonical.SlugCacheTTL(), contentStore.BlogSlugs)
	}

	srv := server.New(a.cfg, server.Deps{
		Store:     store,
		Resolver:  resolver,
		BlogSlugs: blogSlugs,
	}, logger)
	return srv.Run(ctx)
}
