package renderer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/empathyhealth/sitesnap/internal/snapshot"
	"github.com/empathyhealth/sitesnap/internal/telemetry"
)

// PageRenderer captures one route's hydrated HTML.
type PageRenderer interface {
	Render(ctx context.Context, baseURL, route string) (string, error)
}

// RouteResult records the outcome for a single route.
type RouteResult struct {
	Route    string `json:"path"`
	Success  bool   `json:"success"`
	Size     int    `json:"size,omitempty"`
	Error    string `json:"error,omitempty"`
	Duration int64  `json:"duration_ms"`
}

// Summary is the manifest summary written after every run.
type Summary struct {
	GeneratedAt time.Time     `json:"generatedAt"`
	BaseURL     string        `json:"baseUrl"`
	Total       int           `json:"totalRoutes"`
	Succeeded   int           `json:"successCount"`
	Failed      int           `json:"failedCount"`
	Results     []RouteResult `json:"routes"`
}

// Pipeline fans routes out to the renderer, post-processes the captures, and
// writes the snapshot tree. One slow or broken route never aborts the run;
// the verifier, run afterwards, is the build gate.
type Pipeline struct {
	renderer PageRenderer
	store    *snapshot.Store
	parallel int
	logger   *zap.Logger
}

// NewPipeline wires the orchestrator.
func NewPipeline(r PageRenderer, store *snapshot.Store, parallel int, logger *zap.Logger) *Pipeline {
	if parallel <= 0 {
		parallel = 3
	}
	return &Pipeline{renderer: r, store: store, parallel: parallel, logger: logger}
}

// Run renders every route against baseURL, bounded to the configured
// parallelism, and returns the per-route results in input order.
func (p *Pipeline) Run(ctx context.Context, baseURL string, routePaths []string) Summary {
	start := time.Now()
	results := make([]RouteResult, len(routePaths))

	sem := make(chan struct{}, p.parallel)
	var wg sync.WaitGroup
	for i, route := range routePaths {
		wg.Add(1)
		go func(i int, route string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = p.renderOne(ctx, baseURL, route)
		}(i, route)
	}
	wg.Wait()

	summary := Summary{
		GeneratedAt: time.Now().UTC(),
		BaseURL:     baseURL,
		Total:       len(routePaths),
		Results:     results,
	}
	for _, r := range results {
		if r.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	p.logger.Info("prerender run complete",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return summary
}

func (p *Pipeline) renderOne(ctx context.Context, baseURL, route string) RouteResult {
	start := time.Now()
	fail := func(err error) RouteResult {
		telemetry.ObserveRender(route, "failed", time.Since(start))
		p.logger.Warn("route render failed", zap.String("route", route), zap.Error(err))
		return RouteResult{Route: route, Error: err.Error(), Duration: time.Since(start).Milliseconds()}
	}

	raw, err := p.renderer.Render(ctx, baseURL, route)
	if err != nil {
		return fail(err)
	}
	cleaned := snapshot.Clean(raw)
	if _, err := p.store.Write(route, []byte(cleaned)); err != nil {
		return fail(err)
	}

	telemetry.ObserveRender(route, "ok", time.Since(start))
	p.logger.Debug("route rendered",
		zap.String("route", route),
		zap.Int("bytes", len(cleaned)),
	)
	return RouteResult{
		Route:    route,
		Success:  true,
		Size:     len(cleaned),
		Duration: time.Since(start).Milliseconds(),
	}
}

// WriteManifest persists the run summary next to the snapshots.
func (p *Pipeline) WriteManifest(summary Summary) (string, error) {
	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	target := filepath.Join(p.store.Root(), "manifest.json")
	if err := os.WriteFile(target, payload, 0o600); err != nil {
		return "", fmt.Errorf("write manifest %s: %w", target, err)
	}
	return target, nil
}
