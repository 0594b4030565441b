// Package canonical decides, for any request URL, the single redirect (or
// none) that brings it to its canonical form, and owns the redirect rule
// table shared by the runtime resolver and the build-time tooling.
package canonical

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/empathyhealth/sitesnap/internal/snapshot"
)

// Rule maps one source path to a destination path or absolute URL.
type Rule struct {
	Source      string `json:"source" mapstructure:"source"`
	Destination string `json:"destination" mapstructure:"destination"`
	Permanent   bool   `json:"permanent" mapstructure:"permanent"`
}

// DefaultMaxHops bounds intentional redirect chains.
const DefaultMaxHops = 5

// Table is the ordered redirect rule set, realized as a function from source
// to a single destination. It is built once at load time and never mutated
// while serving.
type Table struct {
	rules   []Rule
	bySrc   map[string]Rule
	maxHops int
}

// NewTable validates and indexes the rule set. Malformed rules (destination
// not a path or URL, empty or slash-less source) are dropped and logged
// rather than failing the whole load; a duplicate source keeps the first
// rule, matching the table's function invariant.
func NewTable(rules []Rule, maxHops int, logger *zap.Logger) *Table {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	t := &Table{
		bySrc:   make(map[string]Rule, len(rules)),
		maxHops: maxHops,
	}
	for _, r := range rules {
		if err := validateRule(r); err != nil {
			logger.Warn("dropping malformed redirect rule",
				zap.String("source", r.Source),
				zap.String("destination", r.Destination),
				zap.Error(err),
			)
			continue
		}
		src := snapshot.NormalizeRoute(r.Source)
		if _, dup := t.bySrc[src]; dup {
			logger.Warn("dropping duplicate redirect source", zap.String("source", src))
			continue
		}
		r.Source = src
		// Destinations are normalized here so serving a rule target never
		// triggers a second trailing-slash redirect.
		if strings.HasPrefix(r.Destination, "/") {
			r.Destination = snapshot.NormalizeRoute(r.Destination)
		}
		t.bySrc[src] = r
		t.rules = append(t.rules, r)
	}
	return t
}

func validateRule(r Rule) error {
	if !strings.HasPrefix(r.Source, "/") {
		return fmt.Errorf("source must start with /")
	}
	if strings.HasPrefix(r.Destination, "/") || strings.HasPrefix(r.Destination, "http") {
		return nil
	}
	return fmt.Errorf("destination must start with / or http")
}

// Lookup returns the rule for a normalized source path.
func (t *Table) Lookup(path string) (Rule, bool) {
	r, ok := t.bySrc[path]
	return r, ok
}

// Rules returns the validated rules in load order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Len reports the number of live rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// Check walks every source following destinations through the table, failing
// on cycles and on chains longer than the hop bound. It returns one error per
// offending source so a single bad entry does not mask the rest.
func (t *Table) Check() []error {
	var errs []error
	for _, r := range t.rules {
		if err := t.checkChain(r.Source); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (t *Table) checkChain(source string) error {
	seen := map[string]bool{source: true}
	chain := []string{source}
	current := source
	for hop := 0; hop < t.maxHops; hop++ {
		rule, ok := t.bySrc[current]
		if !ok {
			if hop > 1 {
				return fmt.Errorf("chain from %s takes %d hops (%s); collapse to a direct rule",
					source, hop, strings.Join(chain, " -> "))
			}
			return nil
		}
		next := rule.Destination
		if strings.HasPrefix(next, "http") {
			// Off-site destination terminates the chain.
			return nil
		}
		next = snapshot.NormalizeRoute(next)
		if seen[next] {
			return fmt.Errorf("redirect loop: %s -> %s", strings.Join(chain, " -> "), next)
		}
		seen[next] = true
		chain = append(chain, next)
		current = next
	}
	return fmt.Errorf("chain from %s exceeds %d hops (%s)", source, t.maxHops, strings.Join(chain, " -> "))
}

// MergeBlogSlugRules appends an implicit /{slug} -> /blog/{slug} rule for each
// published blog slug that does not already have an explicit rule, mirroring
// the root-level blog URLs that predate the /blog/ prefix.
func MergeBlogSlugRules(rules []Rule, slugs []string) []Rule {
	existing := make(map[string]bool, len(rules))
	for _, r := range rules {
		existing[snapshot.NormalizeRoute(r.Source)] = true
	}
	out := rules
	for _, slug := range slugs {
		src := "/" + strings.Trim(slug, "/")
		if src == "/" || existing[src] {
			continue
		}
		existing[src] = true
		out = append(out, Rule{Source: src, Destination: "/blog" + src, Permanent: true})
	}
	return out
}
