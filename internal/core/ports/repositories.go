package ports

import (
	"context"

	"github.com/samirrijal/eatnear/internal/core/domain"
)

// RestaurantRepository persists restaurants. Implementations translate their
// driver errors into domain.ErrNotFound and domain.ErrConflict.
type RestaurantRepository interface {
	Create(ctx context.Context, r *domain.Restaurant) error
	Update(ctx context.Context, r *domain.Restaurant) error
	GetByName(ctx context.Context, name string) (*domain.Restaurant, error)
	DeleteByName(ctx context.Context, name string) (*domain.Restaurant, error)
	List(ctx context.Context, offset, limit int) ([]domain.Restaurant, int, error)

	// FindInBounds returns every restaurant whose location lies inside b,
	// edges included. Order is unspecified.
	FindInBounds(ctx context.Context, b domain.Bounds) ([]domain.Restaurant, error)
}
