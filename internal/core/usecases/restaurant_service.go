package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/eatnear/internal/core/domain"
	"github.com/samirrijal/eatnear/internal/core/ports"
	"github.com/samirrijal/eatnear/internal/pkg/metrics"
)

// Listing limits.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// RestaurantService manages the restaurant catalog.
type RestaurantService struct {
	restaurants ports.RestaurantRepository
	cache       ports.CacheService
	events      ports.EventPublisher
	now         func() time.Time
}

// NewRestaurantService creates a new RestaurantService. cache and events may be nil.
func NewRestaurantService(restaurants ports.RestaurantRepository, cache ports.CacheService, events ports.EventPublisher) *RestaurantService {
	return &RestaurantService{
		restaurants: restaurants,
		cache:       cache,
		events:      events,
		now:         time.Now,
	}
}

// Create validates and stores a new restaurant.
func (s *RestaurantService) Create(ctx context.Context, r *domain.Restaurant) (*domain.Restaurant, error) {
	if err := s.prepare(r); err != nil {
		return nil, err
	}

	if err := s.restaurants.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create restaurant %q: %w", r.Name, err)
	}

	s.afterWrite(ctx, "create", &domain.RestaurantEvent{Type: domain.RestaurantCreated, Restaurant: r})
	return r, nil
}

// prepare normalizes r and fills the server-owned fields.
func (s *RestaurantService) prepare(r *domain.Restaurant) error {
	r.Name = strings.TrimSpace(r.Name)
	r.Address = strings.TrimSpace(r.Address)
	if err := r.Validate(); err != nil {
		return err
	}
	r.DerivePriceCategory()

	now := s.now().UTC()
	r.ID = uuid.NewString()
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// GetByName returns a single restaurant.
func (s *RestaurantService) GetByName(ctx context.Context, name string) (*domain.Restaurant, error) {
	return s.restaurants.GetByName(ctx, strings.TrimSpace(name))
}

// List returns a page of restaurants ordered by name and the total count.
func (s *RestaurantService) List(ctx context.Context, offset, limit int) ([]domain.Restaurant, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.restaurants.List(ctx, offset, limit)
}

// Update applies a partial update. The name cannot change.
func (s *RestaurantService) Update(ctx context.Context, name string, patch domain.RestaurantPatch) (*domain.Restaurant, error) {
	r, err := s.restaurants.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}

	patch.Apply(r)
	r.Address = strings.TrimSpace(r.Address)
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.DerivePriceCategory()
	r.UpdatedAt = s.now().UTC()

	if err := s.restaurants.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("update restaurant %q: %w", r.Name, err)
	}

	s.afterWrite(ctx, "update", &domain.RestaurantEvent{Type: domain.RestaurantUpdated, Restaurant: r})
	return r, nil
}

// Delete removes a restaurant and returns what was deleted.
func (s *RestaurantService) Delete(ctx context.Context, name string) (*domain.Restaurant, error) {
	r, err := s.restaurants.DeleteByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, "delete", &domain.RestaurantEvent{Type: domain.RestaurantDeleted, Restaurant: r})
	return r, nil
}

// ImportBatch stores rows one by one. Invalid rows and names already taken
// are skipped; any other failure stops the batch and is returned together
// with the names created so far. No events are published.
func (s *RestaurantService) ImportBatch(ctx context.Context, rows []domain.Restaurant) (created []string, skipped int, err error) {
	for i := range rows {
		r := rows[i]
		if err := s.prepare(&r); err != nil {
			skipped++
			continue
		}
		if err := s.restaurants.Create(ctx, &r); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				skipped++
				continue
			}
			return created, skipped, fmt.Errorf("import restaurant %q: %w", r.Name, err)
		}
		created = append(created, r.Name)
	}
	metrics.ImportRows.WithLabelValues("created").Add(float64(len(created)))
	metrics.ImportRows.WithLabelValues("skipped").Add(float64(skipped))
	return created, skipped, nil
}

// DeleteMany removes the named restaurants, ignoring ones already gone.
func (s *RestaurantService) DeleteMany(ctx context.Context, names []string) error {
	for _, name := range names {
		if _, err := s.restaurants.DeleteByName(ctx, name); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete restaurant %q: %w", name, err)
		}
	}
	if len(names) > 0 {
		s.bumpVersion(ctx)
	}
	return nil
}

// NotifyImported invalidates cached searches and announces a finished import.
func (s *RestaurantService) NotifyImported(ctx context.Context, names []string) {
	s.afterWrite(ctx, "import", &domain.RestaurantEvent{Type: domain.RestaurantImported, Names: names})
}

func (s *RestaurantService) afterWrite(ctx context.Context, op string, event *domain.RestaurantEvent) {
	metrics.CatalogWrites.WithLabelValues(op).Inc()
	s.bumpVersion(ctx)

	if s.events == nil {
		return
	}
	event.At = s.now().UTC()
	if err := s.events.PublishRestaurantEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish restaurant event", "type", event.Type, "error", err)
	}
}

func (s *RestaurantService) bumpVersion(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, CatalogVersionKey); err != nil {
		slog.WarnContext(ctx, "bump catalog version", "error", err)
	}
}
