package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/samirrijal/eatnear/internal/core/domain"
)

const uniqueViolation = "23505"

const restaurantColumns = `id, name, address, latitude, longitude, rating,
	price_lower, price_upper, COALESCE(price_category, ''), created_at, updated_at`

// RestaurantRepo implements ports.RestaurantRepository with pgx.
type RestaurantRepo struct {
	db *DB
}

// NewRestaurantRepo creates a new RestaurantRepo.
func NewRestaurantRepo(db *DB) *RestaurantRepo {
	return &RestaurantRepo{db: db}
}

// Create inserts a restaurant. A taken name yields domain.ErrConflict.
func (r *RestaurantRepo) Create(ctx context.Context, rest *domain.Restaurant) error {
	lower, upper := priceArgs(rest.PriceRange)
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO restaurants (id, name, address, latitude, longitude, rating,
		                         price_lower, price_upper, price_category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11)
	`, rest.ID, rest.Name, rest.Address, rest.Location.Lat, rest.Location.Lon, rest.Rating,
		lower, upper, string(rest.PriceCategory), rest.CreatedAt, rest.UpdatedAt)
	return translate(err)
}

// Update overwrites the mutable columns of the restaurant with rest.Name.
func (r *RestaurantRepo) Update(ctx context.Context, rest *domain.Restaurant) error {
	lower, upper := priceArgs(rest.PriceRange)
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE restaurants
		SET address = $2, latitude = $3, longitude = $4, rating = $5,
		    price_lower = $6, price_upper = $7, price_category = NULLIF($8, ''), updated_at = $9
		WHERE name = $1
	`, rest.Name, rest.Address, rest.Location.Lat, rest.Location.Lon, rest.Rating,
		lower, upper, string(rest.PriceCategory), rest.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByName returns a restaurant by its unique name.
func (r *RestaurantRepo) GetByName(ctx context.Context, name string) (*domain.Restaurant, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE name = $1`, name)
	rest, err := scanRestaurant(row)
	if err != nil {
		return nil, translate(err)
	}
	return rest, nil
}

// DeleteByName removes a restaurant and returns the deleted row.
func (r *RestaurantRepo) DeleteByName(ctx context.Context, name string) (*domain.Restaurant, error) {
	row := r.db.Pool.QueryRow(ctx, `DELETE FROM restaurants WHERE name = $1 RETURNING `+restaurantColumns, name)
	rest, err := scanRestaurant(row)
	if err != nil {
		return nil, translate(err)
	}
	return rest, nil
}

// List returns a page of restaurants ordered by name plus the total count.
func (r *RestaurantRepo) List(ctx context.Context, offset, limit int) ([]domain.Restaurant, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM restaurants`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count restaurants: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+restaurantColumns+`
		FROM restaurants
		ORDER BY name
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows)
	return items, total, err
}

// FindInBounds runs the rectangular range query backed by the
// (latitude, longitude) index.
func (r *RestaurantRepo) FindInBounds(ctx context.Context, b domain.Bounds) ([]domain.Restaurant, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+restaurantColumns+`
		FROM restaurants
		WHERE latitude BETWEEN $1 AND $2
		  AND longitude BETWEEN $3 AND $4
	`, b.Low.Lat, b.High.Lat, b.Low.Lon, b.High.Lon)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]domain.Restaurant, error) {
	defer rows.Close()

	var out []domain.Restaurant
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rest)
	}
	return out, rows.Err()
}

func scanRestaurant(row pgx.Row) (*domain.Restaurant, error) {
	var (
		rest         domain.Restaurant
		lower, upper *float64
		category     string
	)
	if err := row.Scan(
		&rest.ID, &rest.Name, &rest.Address,
		&rest.Location.Lat, &rest.Location.Lon, &rest.Rating,
		&lower, &upper, &category, &rest.CreatedAt, &rest.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lower != nil && upper != nil {
		rest.PriceRange = &domain.PriceRange{Lower: *lower, Upper: *upper}
	}
	rest.PriceCategory = domain.PriceCategory(category)
	return &rest, nil
}

func priceArgs(pr *domain.PriceRange) (lower, upper *float64) {
	if pr == nil {
		return nil, nil
	}
	return &pr.Lower, &pr.Upper
}

// translate maps driver errors onto domain sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.ConstraintName)
	}
	return err
}
