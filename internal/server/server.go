// Package server exposes the HTTP interface: canonical redirects, snapshot
// serving for crawlers, and the SPA fallback for everyone else.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/empathyhealth/sitesnap/internal/botserve"
	"github.com/empathyhealth/sitesnap/internal/cache"
	"github.com/empathyhealth/sitesnap/internal/canonical"
	"github.com/empathyhealth/sitesnap/internal/config"
	"github.com/empathyhealth/sitesnap/internal/snapshot"
	"github.com/empathyhealth/sitesnap/internal/telemetry"
)

// Server wires the serving middleware stack onto a chi router.
type Server struct {
	router chi.Router
	cfg    config.Config
	logger *zap.Logger
}

// Deps carries the injected collaborators for the serving stack. BlogSlugs
// may be nil when no content database is configured.
type Deps struct {
	Store     *snapshot.Store
	Resolver  *canonical.Resolver
	BlogSlugs *cache.StringSet
}

// New constructs a Server with middleware and routes. Order matters:
// canonicalization runs before snapshot serving so crawlers never get a
// snapshot for a non-canonical URL.
func New(cfg config.Config, deps Deps, logger *zap.Logger) *Server {
	s := &Server{cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(telemetry.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	canonicalMW := botserve.CanonicalMiddleware(deps.Resolver, deps.BlogSlugs, nil, logger)
	snapshotMW := botserve.SnapshotMiddleware(botserve.Config{Store: deps.Store}, logger)

	r.Group(func(r chi.Router) {
		r.Use(canonicalMW)
		r.Use(snapshotMW)
		r.Handle("/*", s.spaHandler())
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then drains within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.Int("port", s.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := time.Duration(s.cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// spaHandler serves static assets from the build directory and falls back to
// index.html for every path without a file extension, which is how the
// client-side router receives deep links.
func (s *Server) spaHandler() http.Handler {
	staticDir := s.cfg.Server.StaticDir
	fileServer := http.FileServer(http.Dir(staticDir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if strings.Contains(filepath.Base(path), ".") {
			fileServer.ServeHTTP(w, r)
			return
		}
		index := filepath.Join(staticDir, "index.html")
		if _, err := os.Stat(index); err != nil {
			s.logger.Error("spa shell missing", zap.String("path", index), zap.Error(err))
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.ServeFile(w, r, index)
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// The snapshot tree is read lazily per request; an empty tree still
	// serves the SPA, so readiness only requires the process to be up.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Debug("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec), zap.String("path", r.URL.Path))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
