package sitemap

import (
	"strings"
	"testing"
	"time"

	"github.com/empathyhealth/sitesnap/internal/routes"
)

var buildTime = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func TestBuildIncludesRoutesWithCrawlHints(t *testing.T) {
	t.Parallel()

	payload, err := Build(Config{BaseURL: "https://www.example.com/"}, []routes.Route{
		{Path: "/", Kind: routes.KindPage},
		{Path: "/services", Kind: routes.KindPage},
		{Path: "/blog", Kind: routes.KindPage},
		{Path: "/blog/anxiety-tips", Kind: routes.KindBlog},
		{Path: "/locations/winter-park", Kind: routes.KindLocation},
	}, buildTime)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	xml := string(payload)

	if !strings.HasPrefix(xml, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Fatalf("missing XML declaration:\n%s", xml)
	}
	if !strings.Contains(xml, `xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"`) {
		t.Fatalf("missing urlset namespace:\n%s", xml)
	}
	for _, want := range []string{
		"<loc>https://www.example.com/</loc>",
		"<loc>https://www.example.com/services</loc>",
		"<loc>https://www.example.com/blog/anxiety-tips</loc>",
		"<loc>https://www.example.com/locations/winter-park</loc>",
		"<lastmod>2026-08-29</lastmod>",
	} {
		if !strings.Contains(xml, want) {
			t.Fatalf("expected %q in sitemap:\n%s", want, xml)
		}
	}
	if !strings.Contains(xml, "<priority>1.0</priority>") {
		t.Fatalf("expected home page priority 1.0:\n%s", xml)
	}
	if !strings.Contains(xml, "<changefreq>monthly</changefreq>") {
		t.Fatalf("expected monthly changefreq for location pages:\n%s", xml)
	}
}

func TestBuildExcludesNoindexSkippedAndDuplicates(t *testing.T) {
	t.Parallel()

	payload, err := Build(Config{
		BaseURL: "https://www.example.com",
		Skip:    []string{"/psychiatry-orlando/"},
	}, []routes.Route{
		{Path: "/services", Kind: routes.KindPage},
		{Path: "/services/", Kind: routes.KindPage},
		{Path: "/psychiatry-orlando", Kind: routes.KindPage},
		{Path: "/privacy", Kind: routes.KindPage},
		{Path: "/admin/settings", Kind: routes.KindPage},
		{Path: "/wp-content/uploads", Kind: routes.KindPage},
	}, buildTime)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	xml := string(payload)

	if got := strings.Count(xml, "<loc>"); got != 1 {
		t.Fatalf("expected exactly one URL after filtering, got %d:\n%s", got, xml)
	}
	if !strings.Contains(xml, "<loc>https://www.example.com/services</loc>") {
		t.Fatalf("expected /services to survive filtering:\n%s", xml)
	}
}

func TestBuildRequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := Build(Config{}, nil, buildTime); err == nil {
		t.Fatal("expected error for missing base url")
	}
}
