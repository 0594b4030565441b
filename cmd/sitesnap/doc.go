// Package main hosts the sitesnap entrypoint.
//
// Architecture overview:
//   - Prerender pipeline: internal/routes enumerates the curated static routes plus slugs read live from the
//     content store, internal/renderer drives headless Chrome via chromedp to capture each route's hydrated DOM,
//     internal/snapshot post-processes the capture (dev-script cleanup, provenance marker) and writes the nested
//     snapshot tree plus a run manifest. Per-route failures are recorded, never fatal.
//   - Build gates: internal/verifier cross-checks the manifest against the snapshot tree and fails the build on
//     missing snapshots; internal/validator follows every redirect chain against a live deployment, failing on
//     loops, over-budget chains, and non-200 terminals; internal/audit crawls the site with Colly and reports
//     broken internal links.
//   - Runtime serving: internal/server stacks canonicalization (internal/canonical, one redirect per request:
//     preferred host, no trailing slash, rule table) before bot-aware snapshot delivery (internal/botserve) and
//     the SPA fallback. Crawler classification is a case-insensitive user-agent token scan.
//   - Configuration & plumbing: Viper populates config from env/files under the SITESNAP_ prefix; zap provides
//     structured logging; Prometheus metrics are exported via /metrics; pgx reads content slugs from Postgres.
//
// Operational notes:
//   - Concurrency model: the render pipeline fans routes out to a semaphore-bounded tab pool inside one shared
//     browser process. Shutdown is coordinated via context cancellation from the signal handler.
//   - Staleness: snapshots reflect content at render time. Rerender after content changes; the serving
//     Cache-Control TTL bounds how long a stale snapshot lingers at the edge.
//   - Observability: zap logs carry route paths at key transitions; Prometheus counters/histograms track render
//     outcomes, snapshot serving decisions, and issued canonical redirects.
//
// Quick checklist:
//   - Configure env vars: SITESNAP_SERVER_PORT, SITESNAP_RENDER_BASE_URL, SITESNAP_SNAPSHOT_DIR,
//     SITESNAP_CANONICAL_PREFERRED_HOST, and SITESNAP_CONTENT_DSN when dynamic slugs are required.
//   - Build: sitesnap render && sitesnap verify, then sitesnap validate-redirects against the deployment.
//   - Serve: sitesnap serve listens on the configured port and drains cleanly on SIGTERM.
package main
