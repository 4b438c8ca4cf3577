// Package storage opens the restaurant repository selected by
// storage.backend.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/eatnear/internal/adapters/elastic"
	"github.com/samirrijal/eatnear/internal/adapters/postgres"
	"github.com/samirrijal/eatnear/internal/adapters/sqlite"
	"github.com/samirrijal/eatnear/internal/core/ports"
	"github.com/samirrijal/eatnear/internal/pkg/config"
)

// Backend is an opened repository plus what the process needs around it.
type Backend struct {
	Name string
	Repo ports.RestaurantRepository
	// DB is set for the postgres backend only; it feeds the pool gauges.
	DB *postgres.DB

	ping  func(ctx context.Context) error
	close func()
}

// Ping checks the backend is reachable.
func (b *Backend) Ping(ctx context.Context) error { return b.ping(ctx) }

// Close releases the backend.
func (b *Backend) Close() { b.close() }

// Open connects to the configured backend. Postgres is migrated and the
// Elasticsearch index is created when missing.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		applied, err := db.Migrate(ctx)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		slog.Info("migrations applied", "files", applied)
		return &Backend{
			Name:  cfg.Storage.Backend,
			Repo:  postgres.NewRestaurantRepo(db),
			DB:    db,
			ping:  db.Ping,
			close: db.Close,
		}, nil

	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return &Backend{
			Name:  cfg.Storage.Backend,
			Repo:  store,
			ping:  store.Ping,
			close: func() { _ = store.Close() },
		}, nil

	case config.BackendElastic:
		store, err := elastic.New(cfg.Storage.ElasticURL, cfg.Storage.ElasticIndex)
		if err != nil {
			return nil, fmt.Errorf("elastic: %w", err)
		}
		if err := store.EnsureIndex(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("elastic index: %w", err)
		}
		return &Backend{
			Name:  cfg.Storage.Backend,
			Repo:  store,
			ping:  store.Ping,
			close: store.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
