package cmd

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/empathyhealth/sitesnap/internal/audit"
	"github.com/empathyhealth/sitesnap/internal/logging"
)

func newAuditLinksCmd() *cobra.Command {
	var baseURL, outPath string

	cmd := &cobra.Command{
		Use:   "audit-links",
		Short: "Crawl the site and report broken internal links",
		Long: `Crawls the rendered site from the root, following only same-host
page links, and fails when any internal href resolves to a non-200.
Links that pass through a redirect are reported as advisories.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAuditLinks(cmd, baseURL, outPath)
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "site to crawl (defaults to render.base_url)")
	cmd.Flags().StringVar(&outPath, "out", "", "write the JSON audit summary to this file")
	return cmd
}

func runAuditLinks(cmd *cobra.Command, baseURL, outPath string) error {
	a, err := resolveApp()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger := logging.ForComponent(a.logger, "audit")

	if baseURL == "" {
		baseURL = strings.TrimSuffix(a.cfg.Render.BaseURL, "/")
	}

	auditor := audit.New(audit.Config{UserAgent: a.cfg.Render.UserAgent}, logger)
	report, err := auditor.Run(ctx, baseURL)
	if err != nil {
		return err
	}
	if outPath != "" {
		if err := audit.WriteReport(report, outPath); err != nil {
			return err
		}
	}
	if !report.OK() {
		return fmt.Errorf("%d broken internal links found", len(report.Broken))
	}
	return nil
}
