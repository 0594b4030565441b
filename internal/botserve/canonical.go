package botserve

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/empathyhealth/sitesnap/internal/cache"
	"github.com/empathyhealth/sitesnap/internal/canonical"
	"github.com/empathyhealth/sitesnap/internal/snapshot"
	"github.com/empathyhealth/sitesnap/internal/telemetry"
)

// CanonicalMiddleware issues at most one redirect per request to bring the
// URL to its canonical form: preferred scheme/host, no trailing slash, and
// the redirect rule table, in that order. Blog posts published after the
// table was loaded are caught by the slug cache.
func CanonicalMiddleware(
	resolver *canonical.Resolver,
	blogSlugs *cache.StringSet,
	excludedPrefixes []string,
	logger *zap.Logger,
) func(http.Handler) http.Handler {
	prefixes := excludedPrefixes
	if prefixes == nil {
		prefixes = DefaultExcludedPrefixes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			path := r.URL.Path
			for _, p := range prefixes {
				if strings.HasPrefix(path, p) {
					next.ServeHTTP(w, r)
					return
				}
			}

			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}
			if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
				scheme = proto
			}

			decision := resolver.Resolve(scheme, r.Host, path, r.URL.RawQuery)
			if !decision.Redirect && blogSlugs != nil {
				if slug, ok := rootSlug(path); ok && blogSlugs.Contains(r.Context(), slug) {
					decision = canonical.Decision{
						Redirect: true,
						Target:   "/blog/" + slug,
						Status:   http.StatusMovedPermanently,
					}
				}
			}
			if !decision.Redirect {
				next.ServeHTTP(w, r)
				return
			}

			telemetry.ObserveCanonicalRedirect(decision.Status)
			logger.Debug("canonical redirect",
				zap.String("from", path),
				zap.String("to", decision.Target),
				zap.Int("status", decision.Status),
			)
			http.Redirect(w, r, decision.Target, decision.Status)
		})
	}
}

// rootSlug extracts the slug from a single-segment path like /my-post.
func rootSlug(path string) (string, bool) {
	p := snapshot.NormalizeRoute(path)
	if p == "/" || strings.Count(p, "/") != 1 {
		return "", false
	}
	return strings.TrimPrefix(p, "/"), true
}
