package cmd

import (
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/empathyhealth/sitesnap/internal/logging"
	"github.com/empathyhealth/sitesnap/internal/routes"
	"github.com/empathyhealth/sitesnap/internal/sitemap"
)

func newSitemapCmd() *cobra.Command {
	var baseURL, outPath string

	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Generate sitemap.xml from the enumerated routes",
		Long: `Enumerates the same route list the prerenderer uses and writes a
sitemap.xml listing every indexable URL. Redirect-rule sources and
noindex paths are left out so only canonical destinations appear.

Without a content database the sitemap carries the static pages only.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSitemap(cmd, baseURL, outPath)
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "canonical origin (defaults to the preferred scheme and host)")
	cmd.Flags().StringVar(&outPath, "out", "", "output file (defaults to <server.static_dir>/sitemap.xml)")
	return cmd
}

func runSitemap(cmd *cobra.Command, baseURL, outPath string) error {
	a, err := resolveApp()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger := logging.ForComponent(a.logger, "sitemap")

	contentStore, err := buildContentStore(ctx, a.cfg, logger)
	if err != nil {
		return err
	}
	defer contentStore.Close()

	enum := routes.NewEnumerator(staticRoutes(a.cfg), buildRouteSources(contentStore), logger)
	routeList := enum.Enumerate(ctx)

	table, err := buildRuleTable(ctx, a.cfg, contentStore, logger)
	if err != nil {
		return err
	}
	skip := make([]string, 0, table.Len())
	for _, rule := range table.Rules() {
		skip = append(skip, rule.Source)
	}

	if baseURL == "" {
		if a.cfg.Canonical.PreferredHost != "" {
			baseURL = a.cfg.Canonical.PreferredScheme + "://" + a.cfg.Canonical.PreferredHost
		} else {
			baseURL = strings.TrimSuffix(a.cfg.Render.BaseURL, "/")
		}
	}

	payload, err := sitemap.Build(sitemap.Config{BaseURL: baseURL, Skip: skip}, routeList, time.Now())
	if err != nil {
		return err
	}
	if outPath == "" {
		outPath = filepath.Join(a.cfg.Server.StaticDir, "sitemap.xml")
	}
	if err := sitemap.Write(payload, outPath); err != nil {
		return err
	}
	logger.Info("sitemap written",
		zap.String("path", outPath),
		zap.Int("routes", len(routeList)),
		zap.Int("excluded_rule_sources", len(skip)),
	)
	return nil
}
