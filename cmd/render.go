package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/empathyhealth/sitesnap/internal/logging"
	"github.com/empathyhealth/sitesnap/internal/renderer"
	"github.com/empathyhealth/sitesnap/internal/routes"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Prerender every route into static HTML snapshots",
		Long: `Enumerates the site's routes, renders each one in headless Chrome
against the configured base URL, post-processes the captured HTML, and
writes the snapshot tree plus a run manifest.

Individual route failures are recorded in the manifest but do not fail
the command; run 'sitesnap verify' afterwards to gate the build.`,

		RunE: runRenderCommand,
	}
	return cmd
}

func runRenderCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger := logging.ForComponent(a.logger, "render")

	store, err := buildSnapshotStore(a.cfg)
	if err != nil {
		return err
	}

	contentStore, err := buildContentStore(ctx, a.cfg, logger)
	if err != nil {
		return err
	}
	defer contentStore.Close()

	enum := routes.NewEnumerator(staticRoutes(a.cfg), buildRouteSources(contentStore), logger)
	routeList := enum.Enumerate(ctx)
	logger.Info("routes enumerated", zap.Int("count", len(routeList)))

	chrome, err := renderer.NewChrome(renderer.Config{
		MaxParallel:  a.cfg.Render.MaxParallel,
		NavTimeout:   a.cfg.Render.NavTimeout(),
		SettleDelay:  a.cfg.Render.SettleDelay(),
		MinTextLen:   a.cfg.Render.MinTextLen,
		MinLinks:     a.cfg.Render.MinLinks,
		UserAgent:    a.cfg.Render.UserAgent,
		BlockedHosts: a.cfg.Render.BlockedHosts,
	}, logger)
	if err != nil {
		return fmt.Errorf("start headless browser: %w", err)
	}
	defer chrome.Close()

	pipeline := renderer.NewPipeline(chrome, store, a.cfg.Render.MaxParallel, logger)
	summary := pipeline.Run(ctx, a.cfg.Render.BaseURL, routes.Paths(routeList))

	manifestPath, err := pipeline.WriteManifest(summary)
	if err != nil {
		return err
	}
	logger.Info("manifest written",
		zap.String("path", manifestPath),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return nil
}
