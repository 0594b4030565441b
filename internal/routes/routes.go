// Package routes enumerates every URL path the site must serve: the curated
// static marketing routes plus slugs read live from the content store.
package routes

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/empathyhealth/sitesnap/internal/snapshot"
)

// Kind classifies what a route is expected to render.
type Kind string

// Route content kinds.
const (
	KindPage     Kind = "page"
	KindBlog     Kind = "blog"
	KindLocation Kind = "location"
)

// Route is one logical site path. Routes are derived fresh on every build and
// never persisted on their own.
type Route struct {
	Path string
	Kind Kind
}

// SlugSource yields slugs for one content entity type.
type SlugSource interface {
	Name() string
	Slugs(ctx context.Context) ([]string, error)
}

// Named adapts a plain slug function into a SlugSource.
func Named(name string, fn func(ctx context.Context) ([]string, error)) SlugSource {
	return namedSource{name: name, fn: fn}
}

type namedSource struct {
	name string
	fn   func(ctx context.Context) ([]string, error)
}

func (n namedSource) Name() string { return n.name }

func (n namedSource) Slugs(ctx context.Context) ([]string, error) { return n.fn(ctx) }

// SourceSpec binds a slug source to the path shape its entries take.
type SourceSpec struct {
	Source SlugSource
	Prefix string // e.g. "" for /{slug}, "/blog" for /blog/{slug}
	Kind   Kind
}

// Enumerator produces the deduplicated route manifest.
type Enumerator struct {
	static  []string
	sources []SourceSpec
	logger  *zap.Logger
}

// NewEnumerator builds an enumerator over the static list and content sources.
func NewEnumerator(static []string, sources []SourceSpec, logger *zap.Logger) *Enumerator {
	return &Enumerator{static: static, sources: sources, logger: logger}
}

// Enumerate returns the sorted, normalized, deduplicated route list. A
// failing content source is logged and skipped: a partial manifest is always
// preferred over a failed build, and the static pages never depend on the
// content store being up.
func (e *Enumerator) Enumerate(ctx context.Context) []Route {
	seen := make(map[string]bool)
	var out []Route

	add := func(raw string, kind Kind) {
		p := snapshot.NormalizeRoute(raw)
		if seen[p] {
			return
		}
		seen[p] = true
		out = append(out, Route{Path: p, Kind: kind})
	}

	for _, s := range e.static {
		add(s, KindPage)
	}
	for _, spec := range e.sources {
		slugs, err := spec.Source.Slugs(ctx)
		if err != nil {
			e.logger.Warn("content source failed, continuing with partial route list",
				zap.String("source", spec.Source.Name()),
				zap.Error(err),
			)
			continue
		}
		for _, slug := range slugs {
			if slug == "" {
				continue
			}
			add(spec.Prefix+"/"+slug, spec.Kind)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Paths flattens routes to their path strings.
func Paths(rs []Route) []string {
	paths := make([]string, len(rs))
	for i, r := range rs {
		paths[i] = r.Path
	}
	return paths
}
