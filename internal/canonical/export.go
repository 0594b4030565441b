package canonical

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// platformRuleLimit is the hosting platform's redirect table cap.
const platformRuleLimit = 1024

// exportConfig mirrors the static hosting platform's redirect configuration
// file. Only the fields the sync owns are written; rewrites route SEO files
// and API calls through the serverless function with an SPA catch-all last.
type exportConfig struct {
	TrailingSlash bool      `json:"trailingSlash"`
	Redirects     []Rule    `json:"redirects"`
	Rewrites      []rewrite `json:"rewrites"`
}

type rewrite struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// Export serializes the table into the platform redirect configuration so
// edge-level redirects stay in sync with the application-level table. This
// is a batch build step, not part of the request path.
func Export(t *Table, path string, logger *zap.Logger) error {
	cfg := exportConfig{
		TrailingSlash: false,
		Redirects:     t.Rules(),
		Rewrites: []rewrite{
			{Source: "/robots.txt", Destination: "/api/index"},
			{Source: "/sitemap.xml", Destination: "/api/index"},
			{Source: "/api/:path*", Destination: "/api/index"},
			{Source: "/:path*", Destination: "/index.html"},
		},
	}
	payload, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal redirect config: %w", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o600); err != nil {
		return fmt.Errorf("write redirect config %s: %w", path, err)
	}
	if n := t.Len(); n > platformRuleLimit-124 {
		logger.Warn("approaching platform redirect limit",
			zap.Int("rules", n),
			zap.Int("limit", platformRuleLimit),
		)
	}
	logger.Info("redirect config exported", zap.String("path", path), zap.Int("rules", t.Len()))
	return nil
}
