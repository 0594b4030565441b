// Package validator is the build-time QA tool that follows redirect chains
// hop by hop and blocks deployment on loops, dead ends, and soft 404s.
package validator

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/empathyhealth/sitesnap/internal/snapshot"
)

// Defaults for the validation run.
const (
	DefaultMaxHops           = 5
	DefaultMinContentSize    = 5000
	DefaultRequestTimeout    = 10 * time.Second
	DefaultMissingDestsLimit = 5
)

// Status classifies one validated URL.
type Status string

// Validation outcomes.
const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusWarning Status = "warning"
)

// Result records the full hop sequence for one starting URL.
type Result struct {
	URL         string   `json:"url"`
	Status      Status   `json:"status"`
	HTTPStatus  int      `json:"httpStatus,omitempty"`
	Chain       []string `json:"redirectChain"`
	FinalURL    string   `json:"finalUrl,omitempty"`
	ContentSize int      `json:"contentSize,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Report is the serialized validation summary gating deployment.
type Report struct {
	Timestamp           time.Time `json:"timestamp"`
	Total               int       `json:"total"`
	Passed              int       `json:"passed"`
	Failed              int       `json:"failed"`
	Warnings            int       `json:"warnings"`
	MissingDestinations []string  `json:"missingDestinations"`
	Failures            []Result  `json:"failures"`
}

// OK reports whether the release gate passes.
func (r Report) OK(missingTolerance int) bool {
	if missingTolerance <= 0 {
		missingTolerance = DefaultMissingDestsLimit
	}
	return r.Failed == 0 && len(r.MissingDestinations) <= missingTolerance
}

// Config controls the validator.
type Config struct {
	BaseURL        string
	MaxHops        int
	MinContentSize int
	RequestTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxHops <= 0 {
		c.MaxHops = DefaultMaxHops
	}
	if c.MinContentSize <= 0 {
		c.MinContentSize = DefaultMinContentSize
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	return c
}

// Validator follows redirect chains against a live server without
// auto-following, so every hop is inspectable.
type Validator struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New builds a validator for the base URL.
func New(cfg Config, logger *zap.Logger) *Validator {
	cfg = cfg.withDefaults()
	return &Validator{
		cfg: cfg,
		client: &http.Client{
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}
}

// Follow walks the redirect chain for one starting path, failing on loops,
// hop-budget exhaustion, redirects without a Location header, and non-200
// terminal statuses. Terminal 200 bodies below the content-size floor warn
// as likely soft 404s.
func (v *Validator) Follow(ctx context.Context, start string) Result {
	chain := []string{start}
	current := start

	for hop := 0; hop < v.cfg.MaxHops; hop++ {
		status, location, size, err := v.fetch(ctx, current)
		if err != nil {
			return Result{URL: start, Status: StatusFail, Chain: chain, Error: err.Error()}
		}

		if status < 300 || status >= 400 {
			result := Result{
				URL:         start,
				HTTPStatus:  status,
				Chain:       chain,
				FinalURL:    current,
				ContentSize: size,
			}
			switch {
			case status != http.StatusOK:
				result.Status = StatusFail
				result.Error = fmt.Sprintf("final status %d", status)
			case size < v.cfg.MinContentSize:
				result.Status = StatusWarning
				result.Error = fmt.Sprintf("content size %d below soft-404 floor %d", size, v.cfg.MinContentSize)
			default:
				result.Status = StatusPass
			}
			return result
		}

		if location == "" {
			return Result{
				URL:        start,
				Status:     StatusFail,
				HTTPStatus: status,
				Chain:      chain,
				Error:      "redirect without Location header",
			}
		}
		next := normalizeLocation(location)
		for _, visited := range chain {
			if visited == next {
				return Result{
					URL:        start,
					Status:     StatusFail,
					HTTPStatus: status,
					Chain:      append(chain, next),
					Error:      fmt.Sprintf("redirect loop: %s -> %s", strings.Join(chain, " -> "), next),
				}
			}
		}
		chain = append(chain, next)
		current = next
	}

	return Result{
		URL:    start,
		Status: StatusFail,
		Chain:  chain,
		Error:  fmt.Sprintf("exceeded max redirects (%d)", v.cfg.MaxHops),
	}
}

func (v *Validator) fetch(ctx context.Context, path string) (status int, location string, size int, err error) {
	target := path
	if !strings.HasPrefix(target, "http") {
		target = v.cfg.BaseURL + target
	}
	reqCtx, cancel := context.WithTimeout(ctx, v.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return 0, "", 0, fmt.Errorf("build request for %s: %w", path, err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return 0, "", 0, fmt.Errorf("request timeout for %s", path)
		}
		return 0, "", 0, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return resp.StatusCode, resp.Header.Get("Location"), 0, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", 0, fmt.Errorf("read body of %s: %w", path, err)
	}
	return resp.StatusCode, "", len(body), nil
}

func normalizeLocation(location string) string {
	if strings.HasPrefix(location, "http") {
		if u, err := url.Parse(location); err == nil {
			if u.RawQuery != "" {
				return u.Path + "?" + u.RawQuery
			}
			return u.Path
		}
	}
	return location
}

// Run validates every source path sequentially, checks rule destinations
// against the snapshot tree, and assembles the report.
func (v *Validator) Run(ctx context.Context, sources []string, destinations []string, store *snapshot.Store) Report {
	report := Report{Timestamp: time.Now().UTC()}

	for _, dest := range destinations {
		if strings.HasPrefix(dest, "http") {
			continue
		}
		route := snapshot.NormalizeRoute(dest)
		if strings.HasPrefix(route, "/blog/") {
			// Blog posts render dynamically; their absence from the
			// snapshot tree is expected.
			continue
		}
		if !store.Exists(route) {
			report.MissingDestinations = append(report.MissingDestinations, route)
		}
	}

	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		result := v.Follow(ctx, src)
		report.Total++
		switch result.Status {
		case StatusPass:
			report.Passed++
		case StatusWarning:
			report.Warnings++
			v.logger.Warn("soft-404 suspect",
				zap.String("url", result.URL),
				zap.Int("size", result.ContentSize),
			)
		case StatusFail:
			report.Failed++
			report.Failures = append(report.Failures, result)
			v.logger.Error("redirect validation failed",
				zap.String("url", result.URL),
				zap.Strings("chain", result.Chain),
				zap.String("reason", result.Error),
			)
		}
	}
	return report
}

// LoadProblemCSV reads a Search Console export and returns the deduplicated
// site-relative paths from its first column. The header row and off-site
// rows are skipped.
func LoadProblemCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open problem csv %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse problem csv %s: %w", path, err)
	}

	seen := make(map[string]bool)
	var paths []string
	for i, rec := range records {
		if i == 0 || len(rec) == 0 {
			continue
		}
		raw := strings.TrimSpace(rec[0])
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "http") {
			u, err := url.Parse(raw)
			if err != nil {
				continue
			}
			raw = u.Path
			if u.RawQuery != "" {
				raw += "?" + u.RawQuery
			}
		}
		if !strings.HasPrefix(raw, "/") {
			continue
		}
		if !seen[raw] {
			seen[raw] = true
			paths = append(paths, raw)
		}
	}
	return paths, nil
}

// WriteReport serializes the report to disk.
func WriteReport(report Report, path string) error {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal validation report: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write validation report %s: %w", path, err)
	}
	return nil
}
