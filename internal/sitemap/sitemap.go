// Package sitemap renders the enumerated route list into sitemap.xml.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/empathyhealth/sitesnap/internal/routes"
	"github.com/empathyhealth/sitesnap/internal/snapshot"
)

// DefaultNoindex lists path prefixes that never belong in the sitemap:
// internal surfaces, transactional pages, legal boilerplate, and the
// WordPress probe paths crawlers keep requesting on every site.
var DefaultNoindex = []string{
	"/admin", "/login", "/auth", "/config", "/debug",
	"/examples", "/test", "/preview",
	"/privacy", "/terms", "/disclaimer",
	"/thank-you", "/confirmed", "/appointment-confirmed",
	"/404", "/500", "/error",
	"/search", "/filter",
	"/api", "/attachment", "/uploads", "/media",
	"/wp-includes", "/wp-content", "/wp-admin",
}

// Config controls sitemap generation.
type Config struct {
	// BaseURL is the canonical site origin, e.g. https://www.example.com.
	BaseURL string
	// Noindex path prefixes are excluded; nil means DefaultNoindex.
	Noindex []string
	// Skip holds exact paths to leave out, typically every redirect-rule
	// source so only canonical destinations are listed.
	Skip []string
}

type urlEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Build serializes the route list into sitemap XML. Routes are deduplicated
// and filtered; crawl metadata is derived from each route's kind.
func Build(cfg Config, rs []routes.Route, now time.Time) ([]byte, error) {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("sitemap base url is required")
	}
	noindex := cfg.Noindex
	if noindex == nil {
		noindex = DefaultNoindex
	}
	skip := make(map[string]bool, len(cfg.Skip))
	for _, s := range cfg.Skip {
		skip[snapshot.NormalizeRoute(s)] = true
	}

	lastMod := now.UTC().Format("2006-01-02")
	set := urlSet{Xmlns: xmlns}
	seen := make(map[string]bool, len(rs))
	for _, r := range rs {
		p := snapshot.NormalizeRoute(r.Path)
		if seen[p] || skip[p] || !indexable(p, noindex) {
			continue
		}
		seen[p] = true
		freq, prio := crawlHints(r.Kind, p)
		set.URLs = append(set.URLs, urlEntry{
			Loc:        base + pathSuffix(p),
			LastMod:    lastMod,
			ChangeFreq: freq,
			Priority:   fmt.Sprintf("%.1f", prio),
		})
	}

	payload, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}
	out := make([]byte, 0, len(xml.Header)+len(payload)+1)
	out = append(out, xml.Header...)
	out = append(out, payload...)
	out = append(out, '\n')
	return out, nil
}

// Write persists the sitemap payload to disk.
func Write(payload []byte, path string) error {
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write sitemap %s: %w", path, err)
	}
	return nil
}

func indexable(p string, noindex []string) bool {
	lower := strings.ToLower(p)
	if strings.Contains(lower, "?") || strings.Contains(lower, "wp-") || strings.Contains(lower, "attachment") {
		return false
	}
	for _, prefix := range noindex {
		if lower == prefix || strings.HasPrefix(lower, prefix+"/") {
			return false
		}
	}
	return true
}

// crawlHints maps a route to its changefreq/priority pair. The home page
// and the blog index change daily; individual posts settle quickly.
func crawlHints(kind routes.Kind, p string) (string, float64) {
	switch {
	case p == "/":
		return "daily", 1.0
	case p == "/blog":
		return "daily", 0.8
	case kind == routes.KindBlog:
		return "weekly", 0.5
	case kind == routes.KindLocation:
		return "monthly", 0.7
	default:
		return "weekly", 0.8
	}
}

func pathSuffix(p string) string {
	if p == "/" {
		return "/"
	}
	return p
}
