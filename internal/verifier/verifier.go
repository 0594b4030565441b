// Package verifier is the build gate that cross-checks the route manifest
// against the snapshot tree on disk.
package verifier

import (
	"go.uber.org/zap"

	"github.com/empathyhealth/sitesnap/internal/snapshot"
)

// DefaultMinLinks is the link-sparseness threshold below which a snapshot is
// flagged as low quality. Tunable: the right value depends on site content.
const DefaultMinLinks = 5

// DefaultLowLinkAllowlist names routes expected to carry few internal links.
var DefaultLowLinkAllowlist = []string{"/contact"}

// Config controls the verification pass.
type Config struct {
	MinLinks         int
	LowLinkAllowlist []string
}

// LowQuality describes a present but link-sparse snapshot.
type LowQuality struct {
	Route string `json:"route"`
	Links int    `json:"links"`
}

// Report is the verification outcome. Missing snapshots fail the build
// because the route is entirely unservable to crawlers; low-quality ones are
// degraded but functional, so they only warn.
type Report struct {
	Total      int          `json:"total"`
	Present    int          `json:"present"`
	Missing    []string     `json:"missing"`
	LowQuality []LowQuality `json:"lowQuality"`
}

// OK reports whether the build gate passes: no missing snapshots.
func (r Report) OK() bool {
	return len(r.Missing) == 0
}

// Verify checks that every manifest route has a snapshot and measures link
// density on the ones present.
func Verify(store *snapshot.Store, manifest []string, cfg Config, logger *zap.Logger) Report {
	minLinks := cfg.MinLinks
	if minLinks <= 0 {
		minLinks = DefaultMinLinks
	}
	allow := cfg.LowLinkAllowlist
	if allow == nil {
		allow = DefaultLowLinkAllowlist
	}
	allowed := make(map[string]bool, len(allow))
	for _, a := range allow {
		allowed[snapshot.NormalizeRoute(a)] = true
	}

	report := Report{Total: len(manifest)}
	for _, route := range manifest {
		route = snapshot.NormalizeRoute(route)
		if !store.Exists(route) {
			report.Missing = append(report.Missing, route)
			continue
		}
		report.Present++

		data, err := store.Read(route)
		if err != nil {
			logger.Warn("snapshot unreadable during verify", zap.String("route", route), zap.Error(err))
			continue
		}
		links := snapshot.CountInternalLinks(string(data))
		if links < minLinks && !allowed[route] {
			report.LowQuality = append(report.LowQuality, LowQuality{Route: route, Links: links})
		}
	}

	logger.Info("manifest verification complete",
		zap.Int("total", report.Total),
		zap.Int("present", report.Present),
		zap.Int("missing", len(report.Missing)),
		zap.Int("low_quality", len(report.LowQuality)),
	)
	for _, m := range report.Missing {
		logger.Error("missing snapshot", zap.String("route", m))
	}
	for _, lq := range report.LowQuality {
		logger.Warn("low-quality snapshot", zap.String("route", lq.Route), zap.Int("links", lq.Links))
	}
	return report
}
