package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/empathyhealth/sitesnap/internal/logging"
	"github.com/empathyhealth/sitesnap/internal/renderer"
	"github.com/empathyhealth/sitesnap/internal/verifier"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the snapshot tree against the run manifest",
		Long: `Cross-checks the manifest written by 'sitesnap render' against the
snapshot files on disk. Any manifest route without a snapshot fails the
command; link-sparse snapshots are reported but do not fail it.`,

		RunE: runVerifyCommand,
	}
	return cmd
}

func runVerifyCommand(_ *cobra.Command, _ []string) error {
	a, err := resolveApp()
	if err != nil {
		return err
	}
	logger := logging.ForComponent(a.logger, "verify")

	store, err := buildSnapshotStore(a.cfg)
	if err != nil {
		return err
	}

	manifestPath := filepath.Join(store.Root(), "manifest.json")
	payload, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest %s (run 'sitesnap render' first): %w", manifestPath, err)
	}
	var summary renderer.Summary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return fmt.Errorf("parse manifest %s: %w", manifestPath, err)
	}

	// Failed renders are included on purpose: they left no snapshot behind,
	// and this command is the build gate that must catch that.
	manifest := make([]string, 0, len(summary.Results))
	for _, r := range summary.Results {
		manifest = append(manifest, r.Route)
	}

	report := verifier.Verify(store, manifest, verifier.Config{
		MinLinks:         a.cfg.Verify.MinLinks,
		LowLinkAllowlist: a.cfg.Verify.LowLinkAllowlist,
	}, logger)

	if !report.OK() {
		return fmt.Errorf("%d of %d snapshots missing", len(report.Missing), report.Total)
	}
	return nil
}
