// Package renderer drives headless Chrome to capture fully hydrated HTML for
// each route, and orchestrates the build-time prerender pipeline.
package renderer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// DefaultBlockedHosts are third-party analytics and tracking endpoints
// blocked during capture. First-party content, images, and fonts stay
// unblocked: lazy-loaded sections need them to hydrate.
var DefaultBlockedHosts = []string{
	"*googletagmanager.com*",
	"*google-analytics.com*",
	"*facebook.net*",
	"*clarity.ms*",
	"*doubleclick.net*",
	"*googleads*",
	"*ahrefs.com*",
}

// Config controls the headless capture behavior.
type Config struct {
	MaxParallel  int
	NavTimeout   time.Duration
	SettleDelay  time.Duration
	MinTextLen   int
	MinLinks     int
	UserAgent    string
	BlockedHosts []string
}

func (c Config) withDefaults() Config {
	if c.MaxParallel <= 0 {
		c.MaxParallel = 3
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 1500 * time.Millisecond
	}
	if c.MinTextLen <= 0 {
		c.MinTextLen = 500
	}
	if c.MinLinks <= 0 {
		c.MinLinks = 5
	}
	if c.BlockedHosts == nil {
		c.BlockedHosts = DefaultBlockedHosts
	}
	return c
}

// Chrome renders routes in headless Chrome via chromedp. Each route gets its
// own tab; a semaphore bounds how many tabs run at once.
type Chrome struct {
	cfg             Config
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	sem             chan struct{}
	logger          *zap.Logger
}

// NewChrome starts the shared browser process and warms it up.
func NewChrome(cfg Config, logger *zap.Logger) (*Chrome, error) {
	cfg = cfg.withDefaults()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &Chrome{
		cfg:             cfg,
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		sem:             make(chan struct{}, cfg.MaxParallel),
		logger:          logger,
	}, nil
}

// Close tears down the browser and allocator contexts.
func (c *Chrome) Close() {
	if c == nil {
		return
	}
	c.browserCancel()
	c.allocatorCancel()
}

// Render loads baseURL+route in a fresh tab, waits for the app to finish its
// client-side mount and data fetches, and returns the serialized DOM. Timing
// out one route never disturbs sibling tabs.
func (c *Chrome) Render(ctx context.Context, baseURL, route string) (string, error) {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return "", fmt.Errorf("wait for render slot: %w", ctx.Err())
	}

	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()
	taskCtx, cancelTask := context.WithTimeout(tabCtx, c.cfg.NavTimeout)
	defer cancelTask()

	go func() {
		select {
		case <-ctx.Done():
			cancelTask()
		case <-taskCtx.Done():
		}
	}()

	var html string
	tasks := chromedp.Tasks{
		network.Enable(),
		network.SetBlockedURLs(c.cfg.BlockedHosts),
		c.userAgentAction(),
		emulation.SetDeviceMetricsOverride(1280, 800, 1.0, false),
		chromedp.Navigate(baseURL + route),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Poll(c.readinessExpr(route), nil, chromedp.WithPollingInterval(200*time.Millisecond)),
		chromedp.Sleep(c.cfg.SettleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return "", fmt.Errorf("render %s: %w", route, err)
	}
	return html, nil
}

func (c *Chrome) userAgentAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if c.cfg.UserAgent == "" {
			return nil
		}
		if err := emulation.SetUserAgentOverride(c.cfg.UserAgent).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		return nil
	})
}

// readinessExpr builds the predicate polled inside the page. Capture happens
// only once the mount node shows real landmarks, the visible text clears the
// skeleton-guard threshold, and any canonical link already points at the
// current path (a mid-navigation DOM briefly keeps the previous page's head
// tags).
func (c *Chrome) readinessExpr(route string) string {
	return fmt.Sprintf(`(() => {
	const root = document.getElementById('root');
	if (!root) return false;
	const hasNav = !!(root.querySelector('nav') || root.querySelector('header'));
	const hasMain = !!(root.querySelector('main') || root.querySelector('[role="main"]'));
	const hasLinks = root.querySelectorAll('a[href]').length > %d;
	if (!(hasNav || hasMain || hasLinks)) return false;
	if ((root.textContent || '').length < %d) return false;
	const canonical = document.querySelector('link[rel="canonical"]');
	if (canonical && window.location.pathname !== '/') {
		const href = canonical.getAttribute('href') || '';
		if (!href.includes(%q)) {
			const robots = document.querySelector('meta[name="robots"]');
			const noindex = robots && (robots.getAttribute('content') || '').includes('noindex');
			if (!noindex) return false;
		}
	}
	return true;
})()`, c.cfg.MinLinks, c.cfg.MinTextLen, route)
}

// BlocksHost reports whether a URL would be blocked during capture. Exposed
// for tests and the audit tool.
func (c Config) BlocksHost(rawURL string) bool {
	for _, pattern := range c.withDefaults().BlockedHosts {
		needle := strings.Trim(pattern, "*")
		if strings.Contains(rawURL, needle) {
			return true
		}
	}
	return false
}
