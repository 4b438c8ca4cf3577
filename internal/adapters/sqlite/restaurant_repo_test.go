package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/eatnear/internal/adapters/sqlite"
	"github.com/samirrijal/eatnear/internal/core/domain"
	"github.com/samirrijal/eatnear/internal/core/ranking"
	"github.com/samirrijal/eatnear/internal/core/usecases"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func restaurant(name string, lat, lon float64) *domain.Restaurant {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Restaurant{
		ID:        "id-" + name,
		Name:      name,
		Address:   "Calle Ercilla 1, Bilbao",
		Location:  domain.GeoPoint{Lat: lat, Lon: lon},
		Rating:    3,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStore_CRUD(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	r := restaurant("Bar Charly", 43.262, -2.935)
	r.PriceRange = &domain.PriceRange{Lower: 6000, Upper: 8000}
	r.DerivePriceCategory()
	require.NoError(t, s.Create(ctx, r))

	err := s.Create(ctx, restaurant("Bar Charly", 0, 0))
	assert.True(t, errors.Is(err, domain.ErrConflict), "expected ErrConflict, got %v", err)

	got, err := s.GetByName(ctx, "Bar Charly")
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, domain.PriceMid, got.PriceCategory)
	require.NotNil(t, got.PriceRange)
	assert.Equal(t, 8000.0, got.PriceRange.Upper)
	assert.True(t, got.CreatedAt.Equal(r.CreatedAt))

	got.Address = "Plaza Nueva 3, Bilbao"
	got.PriceRange = nil
	got.DerivePriceCategory()
	require.NoError(t, s.Update(ctx, got))

	again, err := s.GetByName(ctx, "Bar Charly")
	require.NoError(t, err)
	assert.Equal(t, "Plaza Nueva 3, Bilbao", again.Address)
	assert.Nil(t, again.PriceRange)
	assert.Equal(t, domain.PriceCategory(""), again.PriceCategory)

	deleted, err := s.DeleteByName(ctx, "Bar Charly")
	require.NoError(t, err)
	assert.Equal(t, r.ID, deleted.ID)

	_, err = s.GetByName(ctx, "Bar Charly")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = s.DeleteByName(ctx, "Bar Charly")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(s.Update(ctx, got), domain.ErrNotFound))
}

func TestStore_FindInBounds(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for _, r := range []*domain.Restaurant{
		restaurant("Inside", 0.5, 0.5),
		restaurant("Low Corner", 0, 0),
		restaurant("High Corner", 1, 1),
		restaurant("Too North", 1.01, 0.5),
		restaurant("Too West", 0.5, -0.01),
	} {
		require.NoError(t, s.Create(ctx, r))
	}

	found, err := s.FindInBounds(ctx, domain.Bounds{
		Low:  domain.GeoPoint{Lat: 0, Lon: 0},
		High: domain.GeoPoint{Lat: 1, Lon: 1},
	})
	require.NoError(t, err)

	var names []string
	for _, r := range found {
		names = append(names, r.Name)
	}
	assert.ElementsMatch(t, []string{"Inside", "Low Corner", "High Corner"}, names)
}

func TestStore_List(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Create(ctx, restaurant(fmt.Sprintf("Txoko %d", i), 0, 0)))
	}

	page, total, err := s.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "Txoko 2", page[0].Name)
	assert.Equal(t, "Txoko 3", page[1].Name)
}

// The full search path over a real range query.
func TestStore_SearchEndToEnd(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	a := restaurant("Restaurant A", 0, 0.05)
	a.Rating = 4
	a.PriceCategory = domain.PriceMid
	b := restaurant("Restaurant B", 0.08, 0)
	b.Rating = 5
	b.PriceCategory = domain.PriceLow
	far := restaurant("Restaurant Far", 1, 1)
	for _, r := range []*domain.Restaurant{b, far, a} {
		require.NoError(t, s.Create(ctx, r))
	}

	svc := usecases.NewSearchService(s, nil, ranking.NewRanker(ranking.DefaultConfig()), 0)
	got, err := svc.Search(ctx, domain.SearchRequest{
		Center:        domain.GeoPoint{Lat: 0, Lon: 0},
		RadiusMeters:  10000,
		PriceCategory: domain.PriceMid,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Restaurant A", got[0].Name)
	assert.Equal(t, "Restaurant B", got[1].Name)
	assert.InDelta(t, 5565.97, got[0].Distance, 0.5)
}
