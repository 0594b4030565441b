package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/empathyhealth/sitesnap/internal/canonical"
	"github.com/empathyhealth/sitesnap/internal/config"
	"github.com/empathyhealth/sitesnap/internal/content"
	"github.com/empathyhealth/sitesnap/internal/routes"
	"github.com/empathyhealth/sitesnap/internal/snapshot"
)

func buildSnapshotStore(cfg config.Config) (*snapshot.Store, error) {
	store, err := snapshot.NewStore(cfg.Snapshot.Dir)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return store, nil
}

// buildContentStore returns nil without error when no DSN is configured; the
// static routes and explicit rules work without a content database.
func buildContentStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*content.Store, error) {
	if cfg.Content.DSN == "" {
		logger.Info("no content database configured, using static routes and rules only")
		return nil, nil
	}
	store, err := content.NewStore(ctx, content.StoreConfig{
		DSN:             cfg.Content.DSN,
		MaxConns:        int32(cfg.Content.MaxConns),
		MinConns:        int32(cfg.Content.MinConns),
		MaxConnLifetime: cfg.Content.ConnLifetime(),
	})
	if err != nil {
		return nil, fmt.Errorf("connect content store: %w", err)
	}
	return store, nil
}

// buildRouteSources binds the content-backed slug sources; a nil store means
// the static route list stands alone.
func buildRouteSources(store *content.Store) []routes.SourceSpec {
	if store == nil {
		return nil
	}
	return []routes.SourceSpec{
		{Source: routes.Named("blog", store.BlogSlugs), Prefix: "/blog", Kind: routes.KindBlog},
		{Source: routes.Named("treatments", store.TreatmentSlugs), Kind: routes.KindPage},
		{Source: routes.Named("conditions", store.ConditionSlugs), Kind: routes.KindPage},
		{Source: routes.Named("team", store.TeamSlugs), Prefix: "/team", Kind: routes.KindPage},
		// Location pages are reachable both at the root and under the
		// /locations prefix; the enumerator dedupes overlaps.
		{Source: routes.Named("locations", store.LocationSlugs), Kind: routes.KindLocation},
		{Source: routes.Named("locations-prefixed", store.LocationSlugs), Prefix: "/locations", Kind: routes.KindLocation},
	}
}

// staticRoutes applies the render config to the curated static list.
func staticRoutes(cfg config.Config) []string {
	var static []string
	if !cfg.Render.SkipStaticPages {
		static = routes.DefaultStatic
	}
	return append(static, cfg.Render.ExtraRoutes...)
}

// buildRuleTable assembles the redirect table from the configured rules plus
// the implicit blog-slug rules when a content store is available.
func buildRuleTable(ctx context.Context, cfg config.Config, store *content.Store, logger *zap.Logger) (*canonical.Table, error) {
	rules := cfg.Canonical.Rules
	if store != nil {
		slugs, err := store.BlogSlugs(ctx)
		if err != nil {
			return nil, fmt.Errorf("load blog slugs: %w", err)
		}
		rules = canonical.MergeBlogSlugRules(rules, slugs)
	}
	return canonical.NewTable(rules, cfg.Canonical.MaxHops, logger), nil
}
