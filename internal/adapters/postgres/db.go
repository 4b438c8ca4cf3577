package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/eatnear/migrations"
)

// DB wraps pgxpool.Pool and provides a shared connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new DB connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConns = 50

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Migrate applies the embedded forward migrations. Scripts are idempotent.
func (db *DB) Migrate(ctx context.Context) ([]string, error) {
	files, err := migrations.Up()
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	return db.exec(ctx, files)
}

// Rollback applies the embedded down migrations.
func (db *DB) Rollback(ctx context.Context) ([]string, error) {
	files, err := migrations.Down()
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	return db.exec(ctx, files)
}

func (db *DB) exec(ctx context.Context, files []migrations.File) ([]string, error) {
	applied := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := db.Pool.Exec(ctx, f.SQL); err != nil {
			return applied, fmt.Errorf("exec %s: %w", f.Name, err)
		}
		applied = append(applied, f.Name)
	}
	return applied, nil
}

// Close releases pool resources.
func (db *DB) Close() {
	db.Pool.Close()
}
