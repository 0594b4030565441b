package cmd

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/empathyhealth/sitesnap/internal/logging"
	"github.com/empathyhealth/sitesnap/internal/validator"
)

func newValidateRedirectsCmd() *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "validate-redirects",
		Short: "Follow every redirect chain against a live deployment",
		Long: `Requests each redirect source against the configured base URL and
follows the chain hop by hop, failing on loops, chains over the hop
budget, and non-200 terminal responses. Rule destinations are also
checked against the snapshot tree.

With --csv, the first column of a Search Console export is validated
alongside the configured rules.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidateRedirects(cmd, csvPath)
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "Search Console problem-URL export to validate")
	return cmd
}

func runValidateRedirects(cmd *cobra.Command, csvPath string) error {
	a, err := resolveApp()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger := logging.ForComponent(a.logger, "validate")

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
	if errs := table.Check(); len(errs) > 0 {
		for _, e := range errs {
			logger.Error("rule table check failed", zap.Error(e))
		}
		return fmt.Errorf("rule table has %d structural problems", len(errs))
	}

	seen := make(map[string]bool)
	var sources, destinations []string
	for _, rule := range table.Rules() {
		if !seen[rule.Source] {
			seen[rule.Source] = true
			sources = append(sources, rule.Source)
		}
		destinations = append(destinations, rule.Destination)
	}
	if csvPath != "" {
		extra, err := validator.LoadProblemCSV(csvPath)
		if err != nil {
			return err
		}
		for _, p := range extra {
			if !seen[p] {
				seen[p] = true
				sources = append(sources, p)
			}
		}
		logger.Info("problem urls loaded", zap.String("csv", csvPath), zap.Int("count", len(extra)))
	}

	baseURL := a.cfg.Validation.BaseURL
	if baseURL == "" {
		baseURL = strings.TrimSuffix(a.cfg.Render.BaseURL, "/")
	}
	v := validator.New(validator.Config{
		BaseURL:        baseURL,
		MaxHops:        a.cfg.Validation.MaxHops,
		MinContentSize: a.cfg.Validation.MinContentSize,
		RequestTimeout: time.Duration(a.cfg.Validation.TimeoutSec) * time.Second,
	}, logger)

	report := v.Run(ctx, sources, destinations, store)
	if err := validator.WriteReport(report, a.cfg.Validation.ReportPath); err != nil {
		return err
	}
	logger.Info("validation report written",
		zap.String("path", a.cfg.Validation.ReportPath),
		zap.Int("passed", report.Passed),
		zap.Int("failed", report.Failed),
		zap.Int("warnings", report.Warnings),
		zap.Int("missing_destinations", len(report.MissingDestinations)),
	)

	if !report.OK(a.cfg.Validation.MissingDestsLimit) {
		return fmt.Errorf("redirect validation failed: %d failures, %d missing destinations",
			report.Failed, len(report.MissingDestinations))
	}
	return nil
}
