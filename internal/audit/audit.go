// Package audit crawls the rendered site and reports broken internal links
// before they reach crawlers.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/empathyhealth/sitesnap/internal/snapshot"
)

// Config controls the crawl.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	MaxDepth  int
	Parallel  int
}

func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = "sitesnap-audit/1.0"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 4
	}
	if c.Parallel <= 0 {
		c.Parallel = 4
	}
	return c
}

// BrokenLink is an internal href that did not resolve to a 200.
type BrokenLink struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Status int    `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RedirectedLink is an internal href that points at a redirect source
// instead of its final destination.
type RedirectedLink struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Report summarizes the crawl. Redirected links are advisory; only broken
// links fail the audit.
type Report struct {
	PagesVisited int              `json:"pagesVisited"`
	LinksChecked int              `json:"linksChecked"`
	Broken       []BrokenLink     `json:"broken"`
	Redirected   []RedirectedLink `json:"redirected"`
}

// OK reports whether the crawl found no broken links.
func (r Report) OK() bool {
	return len(r.Broken) == 0
}

// Auditor drives a same-host colly crawl from the site root.
type Auditor struct {
	cfg    Config
	logger *zap.Logger
}

// New builds an auditor.
func New(cfg Config, logger *zap.Logger) *Auditor {
	return &Auditor{cfg: cfg.withDefaults(), logger: logger}
}

// Run crawls baseURL breadth-first, following only same-host page links, and
// records every href that resolves to a non-200.
func (a *Auditor) Run(ctx context.Context, baseURL string) (Report, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return Report{}, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}

	c := colly.NewCollector(
		colly.AllowedDomains(base.Hostname()),
		colly.MaxDepth(a.cfg.MaxDepth),
		colly.Async(true),
	)
	c.UserAgent = a.cfg.UserAgent
	c.IgnoreRobotsTxt = true
	c.SetRequestTimeout(a.cfg.Timeout)
	c.WithTransport(newHTTPTransport())
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: a.cfg.Parallel,
	}); err != nil {
		return Report{}, fmt.Errorf("configure crawl limits: %w", err)
	}

	var (
		mu      sync.Mutex
		report  Report
		visited = make(map[string]bool)
		linked  = make(map[string]string)
	)

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		href := e.Attr("href")
		if !isAuditablePath(href) {
			return
		}
		target := snapshot.NormalizeRoute(href)
		from := snapshot.NormalizeRoute(e.Request.URL.Path)

		mu.Lock()
		if _, seen := linked[target]; !seen {
			linked[target] = from
			report.LinksChecked++
		}
		mu.Unlock()

		if err := e.Request.Visit(e.Request.AbsoluteURL(href)); err != nil {
			// AlreadyVisited and MaxDepth are normal crawl control flow.
			a.logger.Debug("skip link", zap.String("href", href), zap.Error(err))
		}
	})

	c.OnResponse(func(r *colly.Response) {
		path := snapshot.NormalizeRoute(r.Request.URL.Path)
		mu.Lock()
		defer mu.Unlock()
		if !visited[path] {
			visited[path] = true
			report.PagesVisited++
		}
	})

	c.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		if len(via) == 0 {
			return nil
		}
		from := snapshot.NormalizeRoute(via[0].URL.Path)
		to := snapshot.NormalizeRoute(req.URL.Path)
		mu.Lock()
		report.Redirected = append(report.Redirected, RedirectedLink{From: from, To: to})
		mu.Unlock()
		return nil
	})

	c.OnError(func(r *colly.Response, err error) {
		// Revisits and depth cutoffs are crawl control flow, not broken links.
		if errors.Is(err, colly.ErrAlreadyVisited) || errors.Is(err, colly.ErrMaxDepth) {
			return
		}
		path := snapshot.NormalizeRoute(r.Request.URL.Path)
		mu.Lock()
		defer mu.Unlock()
		if visited[path] {
			return
		}
		visited[path] = true
		report.PagesVisited++
		from := linked[path]
		if from == "" {
			from = "/"
		}
		broken := BrokenLink{From: from, To: path, Status: r.StatusCode}
		if err != nil {
			broken.Error = err.Error()
		}
		report.Broken = append(report.Broken, broken)
	})

	done := make(chan error, 1)
	go func() {
		if err := c.Visit(baseURL); err != nil {
			done <- fmt.Errorf("start crawl at %s: %w", baseURL, err)
			return
		}
		c.Wait()
		done <- nil
	}()

	select {
	case <-ctx.Done():
		return Report{}, fmt.Errorf("link audit canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return Report{}, err
		}
	}

	sort.Slice(report.Broken, func(i, j int) bool {
		return report.Broken[i].To < report.Broken[j].To
	})
	a.logger.Info("link audit complete",
		zap.Int("pages", report.PagesVisited),
		zap.Int("links", report.LinksChecked),
		zap.Int("broken", len(report.Broken)),
		zap.Int("redirected", len(report.Redirected)),
	)
	for _, rl := range report.Redirected {
		a.logger.Warn("internal link goes through a redirect, link the destination directly",
			zap.String("link", rl.From),
			zap.String("destination", rl.To),
		)
	}
	for _, b := range report.Broken {
		a.logger.Error("broken internal link",
			zap.String("from", b.From),
			zap.String("to", b.To),
			zap.Int("status", b.Status),
		)
	}
	return report, nil
}

// WriteReport serializes the audit summary to disk.
func WriteReport(report Report, path string) error {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal audit report: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write audit report %s: %w", path, err)
	}
	return nil
}

// isAuditablePath keeps the crawl on same-site page links; assets, anchors,
// mailto/tel, and protocol-relative URLs are out of scope.
func isAuditablePath(href string) bool {
	if href == "" || !strings.HasPrefix(href, "/") || strings.HasPrefix(href, "//") {
		return false
	}
	if strings.HasPrefix(href, "/api/") || strings.HasPrefix(href, "/assets/") {
		return false
	}
	trimmed := href
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if i := strings.LastIndex(trimmed, "."); i > strings.LastIndex(trimmed, "/") {
		return false
	}
	return true
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
