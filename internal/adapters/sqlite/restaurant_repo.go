// Package sqlite stores restaurants in a single SQLite file, for local
// development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/samirrijal/eatnear/internal/core/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS restaurants (
  id             TEXT PRIMARY KEY,
  name           TEXT NOT NULL UNIQUE,
  address        TEXT NOT NULL,
  latitude       REAL NOT NULL,
  longitude      REAL NOT NULL,
  rating         REAL NOT NULL DEFAULT 0,
  price_lower    REAL,
  price_upper    REAL,
  price_category TEXT NOT NULL DEFAULT '',
  created_at     TEXT NOT NULL,
  updated_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_restaurants_lat_lon ON restaurants(latitude, longitude);
`

const columns = `id, name, address, latitude, longitude, rating,
  price_lower, price_upper, price_category, created_at, updated_at`

// Store implements ports.RestaurantRepository on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// Every :memory: connection is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database is usable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Create inserts a restaurant. A taken name yields domain.ErrConflict.
func (s *Store) Create(ctx context.Context, r *domain.Restaurant) error {
	lower, upper := priceArgs(r.PriceRange)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO restaurants (`+columns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Address, r.Location.Lat, r.Location.Lon, r.Rating,
		lower, upper, string(r.PriceCategory),
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	return translate(err)
}

// Update overwrites the mutable columns of the restaurant with r.Name.
func (s *Store) Update(ctx context.Context, r *domain.Restaurant) error {
	lower, upper := priceArgs(r.PriceRange)
	res, err := s.db.ExecContext(ctx, `
UPDATE restaurants
SET address = ?, latitude = ?, longitude = ?, rating = ?,
    price_lower = ?, price_upper = ?, price_category = ?, updated_at = ?
WHERE name = ?`,
		r.Address, r.Location.Lat, r.Location.Lon, r.Rating,
		lower, upper, string(r.PriceCategory), formatTime(r.UpdatedAt), r.Name,
	)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByName returns a restaurant by its unique name.
func (s *Store) GetByName(ctx context.Context, name string) (*domain.Restaurant, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM restaurants WHERE name = ?`, name)
	r, err := scan(row)
	if err != nil {
		return nil, translate(err)
	}
	return r, nil
}

// DeleteByName removes a restaurant and returns the deleted row.
func (s *Store) DeleteByName(ctx context.Context, name string) (*domain.Restaurant, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	r, err := scan(tx.QueryRowContext(ctx, `SELECT `+columns+` FROM restaurants WHERE name = ?`, name))
	if err != nil {
		return nil, translate(err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM restaurants WHERE name = ?`, name); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r, nil
}

// List returns a page of restaurants ordered by name plus the total count.
func (s *Store) List(ctx context.Context, offset, limit int) ([]domain.Restaurant, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM restaurants`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM restaurants ORDER BY name LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows)
	return items, total, err
}

// FindInBounds runs the rectangular range query on the lat/lon index.
func (s *Store) FindInBounds(ctx context.Context, b domain.Bounds) ([]domain.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+columns+`
FROM restaurants
WHERE latitude BETWEEN ? AND ?
  AND longitude BETWEEN ? AND ?`,
		b.Low.Lat, b.High.Lat, b.Low.Lon, b.High.Lon)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func collect(rows *sql.Rows) ([]domain.Restaurant, error) {
	defer rows.Close()

	var out []domain.Restaurant
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scan(row scanner) (*domain.Restaurant, error) {
	var (
		r                domain.Restaurant
		lower, upper     sql.NullFloat64
		category         string
		created, updated string
	)
	if err := row.Scan(
		&r.ID, &r.Name, &r.Address, &r.Location.Lat, &r.Location.Lon, &r.Rating,
		&lower, &upper, &category, &created, &updated,
	); err != nil {
		return nil, err
	}
	if lower.Valid && upper.Valid {
		r.PriceRange = &domain.PriceRange{Lower: lower.Float64, Upper: upper.Float64}
	}
	r.PriceCategory = domain.PriceCategory(category)

	var err error
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &r, nil
}

func priceArgs(pr *domain.PriceRange) (lower, upper sql.NullFloat64) {
	if pr == nil {
		return
	}
	return sql.NullFloat64{Float64: pr.Lower, Valid: true}, sql.NullFloat64{Float64: pr.Upper, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var se sqlite3.Error
	if errors.As(err, &se) &&
		(se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return fmt.Errorf("%w: %s", domain.ErrConflict, se.Error())
	}
	return err
}
