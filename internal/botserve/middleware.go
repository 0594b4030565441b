package botserve

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/empathyhealth/sitesnap/internal/snapshot"
	"github.com/empathyhealth/sitesnap/internal/telemetry"
)

// DefaultExcludedPrefixes are request paths the snapshot middleware never
// touches: API calls, build assets, dev-server internals, and well-known
// endpoints.
var DefaultExcludedPrefixes = []string{
	"/api/",
	"/assets/",
	"/.well-known/",
	"/@",
	"/src/",
	"/node_modules/",
}

// DefaultExcludedExtensions cover static assets requested directly by path.
var DefaultExcludedExtensions = []string{
	".js", ".mjs", ".css", ".map",
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".avif", ".ico",
	".woff", ".woff2", ".ttf", ".otf", ".eot",
	".xml", ".txt", ".json", ".webmanifest",
}

// Config carries the serving middleware's injected data: the snapshot store
// plus the classification and exclusion lists, so tests can exercise the
// middleware without a full server.
type Config struct {
	Store              *snapshot.Store
	Classifier         *Classifier
	ExcludedPrefixes   []string
	ExcludedExtensions []string
}

// SnapshotMiddleware serves prerendered snapshots to classified crawlers and
// passes every other request through. It must run before the SPA catch-all
// handler. A missing snapshot is not an error; the SPA shell is always a
// valid fallback.
func SnapshotMiddleware(cfg Config, logger *zap.Logger) func(http.Handler) http.Handler {
	prefixes := cfg.ExcludedPrefixes
	if prefixes == nil {
		prefixes = DefaultExcludedPrefixes
	}
	exts := cfg.ExcludedExtensions
	if exts == nil {
		exts = DefaultExcludedExtensions
	}
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = NewClassifier(nil)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Exclusions run before UA classification so asset and API
			// traffic skips the substring scan entirely.
			if (r.Method != http.MethodGet && r.Method != http.MethodHead) || excluded(r.URL.Path, prefixes, exts) {
				next.ServeHTTP(w, r)
				return
			}
			if !classifier.IsBot(r.Header.Get("User-Agent")) {
				telemetry.ObserveSnapshotServe("passthrough")
				next.ServeHTTP(w, r)
				return
			}

			route := snapshot.NormalizeRoute(r.URL.Path)
			if !cfg.Store.Exists(route) {
				telemetry.ObserveSnapshotServe("miss")
				logger.Debug("no snapshot for crawler request, serving SPA",
					zap.String("route", route),
				)
				next.ServeHTTP(w, r)
				return
			}

			data, err := cfg.Store.Read(route)
			if err != nil {
				telemetry.ObserveSnapshotServe("miss")
				logger.Warn("snapshot read failed", zap.String("route", route), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			telemetry.ObserveSnapshotServe("served")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("X-Prerendered", "true")
			// Snapshots go stale silently when content changes, so the TTL
			// must stay finite.
			w.Header().Set("Cache-Control", "public, max-age=3600, stale-while-revalidate=86400")
			w.WriteHeader(http.StatusOK)
			if r.Method == http.MethodGet {
				if _, err := w.Write(data); err != nil {
					logger.Warn("snapshot write failed", zap.String("route", route), zap.Error(err))
				}
			}
		})
	}
}

func excluded(path string, prefixes, exts []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	lower := strings.ToLower(path)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
