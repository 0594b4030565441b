// Package telemetry defines the Prometheus metrics surface and the HTTP
// observer middleware.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	renderRoutesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitesnap_render_routes_total",
			Help: "Routes rendered at build time, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	renderDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sitesnap_render_duration_seconds",
			Help:    "Histogram of per-route render latencies.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
		},
	)

	snapshotServesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitesnap_snapshot_serves_total",
			Help: "Snapshot middleware decisions, labeled by result (served, passthrough, miss).",
		},
		[]string{"result"},
	)

	canonicalRedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitesnap_canonical_redirects_total",
			Help: "Redirects issued by the canonicalization middleware, labeled by status code.",
		},
		[]string{"code"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitesnap_http_requests_total",
			Help: "HTTP requests served, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitesnap_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"method", "route"},
	)
)

// ObserveRender records one build-time route render.
func ObserveRender(_ string, outcome string, duration time.Duration) {
	renderRoutesTotal.WithLabelValues(outcome).Inc()
	renderDurationSeconds.Observe(duration.Seconds())
}

// ObserveSnapshotServe records a bot-serving middleware decision.
func ObserveSnapshotServe(result string) {
	snapshotServesTotal.WithLabelValues(result).Inc()
}

// ObserveCanonicalRedirect records an issued canonical redirect.
func ObserveCanonicalRedirect(code int) {
	canonicalRedirectsTotal.WithLabelValues(strconv.Itoa(code)).Inc()
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request metrics for every route served by chi.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}
		ObserveHTTPRequest(r.Method, routePattern, ww.statusCode, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}
