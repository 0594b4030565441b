package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/empathyhealth/sitesnap/internal/canonical"
	"github.com/empathyhealth/sitesnap/internal/logging"
)

func newExportRedirectsCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export-redirects",
		Short: "Export the redirect table to the hosting platform config",
		Long: `Writes the validated redirect table, including the implicit
blog-slug rules, into the static hosting platform's configuration file
so edge redirects stay in sync with the application table.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExportRedirects(cmd, outPath)
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "vercel.json", "output file for the platform redirect config")
	return cmd
}

func runExportRedirects(cmd *cobra.Command, outPath string) error {
	a, err := resolveApp()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger := logging.ForComponent(a.logger, "export")

	contentStore, err := buildContentStore(ctx, a.cfg, logger)
	if err != nil {
		return err
	}
	defer contentStore.Close()

	table, err := buildRuleTable(ctx, a.cfg, contentStore, logger)
	if err != nil {
		return err
	}
	return canonical.Export(table, outPath, logger)
}
