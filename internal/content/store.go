// Package content provides read-only access to the marketing content store.
// The enumerator and the blog-slug redirect cache are the only consumers;
// all writes happen through the CRUD API, which is out of scope here.
package content

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StoreConfig controls the Postgres connection pool.
type StoreConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// querier is the pgx surface the store needs; pgxmock satisfies it in tests.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store reads slugs from the content tables.
type Store struct {
	pool querier
	done func()
}

// NewStore connects a pgx pool using the provided config.
func NewStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("content.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse content dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect content store: %w", err)
	}
	return &Store{pool: pool, done: pool.Close}, nil
}

// NewStoreWithPool constructs a store from an existing pool, primarily for
// tests.
func NewStoreWithPool(pool querier) *Store {
	return &Store{pool: pool, done: func() {}}
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s != nil && s.done != nil {
		s.done()
	}
}

func (s *Store) slugQuery(ctx context.Context, query string) ([]string, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query slugs: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scan slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slugs: %w", err)
	}
	return slugs, nil
}

// BlogSlugs returns slugs of published blog posts.
func (s *Store) BlogSlugs(ctx context.Context) ([]string, error) {
	return s.slugQuery(ctx, `SELECT slug FROM blog_posts WHERE status = 'published' ORDER BY slug`)
}

// TreatmentSlugs returns slugs of active treatment pages.
func (s *Store) TreatmentSlugs(ctx context.Context) ([]string, error) {
	return s.slugQuery(ctx, `SELECT slug FROM treatments WHERE active ORDER BY slug`)
}

// ConditionSlugs returns slugs of active condition pages.
func (s *Store) ConditionSlugs(ctx context.Context) ([]string, error) {
	return s.slugQuery(ctx, `SELECT slug FROM conditions WHERE active ORDER BY slug`)
}

// LocationSlugs returns slugs of location pages.
func (s *Store) LocationSlugs(ctx context.Context) ([]string, error) {
	return s.slugQuery(ctx, `SELECT slug FROM locations ORDER BY slug`)
}

// TeamSlugs returns slugs of active team member profiles.
func (s *Store) TeamSlugs(ctx context.Context) ([]string, error) {
	return s.slugQuery(ctx, `SELECT slug FROM team_members WHERE active ORDER BY slug`)
}
