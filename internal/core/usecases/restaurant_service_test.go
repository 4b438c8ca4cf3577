package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/eatnear/internal/core/domain"
	"github.com/samirrijal/eatnear/internal/core/usecases"
)

func sampleRestaurant() *domain.Restaurant {
	return &domain.Restaurant{
		Name:       "  La Viña del Ensanche ",
		Address:    "Diputazio Kalea 10, Bilbao",
		Location:   domain.GeoPoint{Lat: 43.2625, Lon: -2.9340},
		Rating:     5,
		PriceRange: &domain.PriceRange{Lower: 3000, Upper: 9000},
	}
}

func TestRestaurantService_Create(t *testing.T) {
	var stored *domain.Restaurant
	repo := &mockRestaurantRepo{
		createFn: func(ctx context.Context, r *domain.Restaurant) error {
			stored = r
			return nil
		},
	}
	cache := newMockCache()
	pub := &mockPublisher{}
	svc := usecases.NewRestaurantService(repo, cache, pub)

	got, err := svc.Create(context.Background(), sampleRestaurant())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil || stored != got {
		t.Fatal("expected repository to receive the created restaurant")
	}
	if got.Name != "La Viña del Ensanche" {
		t.Errorf("expected trimmed name, got %q", got.Name)
	}
	if got.ID == "" || got.CreatedAt.IsZero() {
		t.Error("expected ID and timestamps to be set")
	}
	if got.PriceCategory != domain.PriceMid {
		t.Errorf("expected MID, got %s", got.PriceCategory)
	}
	if v, _ := cache.Get(context.Background(), usecases.CatalogVersionKey); string(v) != "1" {
		t.Errorf("expected catalog version 1, got %q", v)
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.RestaurantCreated {
		t.Errorf("expected one created event, got %+v", pub.events)
	}
}

func TestRestaurantService_Create_Invalid(t *testing.T) {
	called := false
	repo := &mockRestaurantRepo{
		createFn: func(ctx context.Context, r *domain.Restaurant) error {
			called = true
			return nil
		},
	}
	svc := usecases.NewRestaurantService(repo, nil, nil)

	r := sampleRestaurant()
	r.Rating = 9
	if _, err := svc.Create(context.Background(), r); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if called {
		t.Error("invalid restaurant must not reach the repository")
	}
}

func TestRestaurantService_Create_Conflict(t *testing.T) {
	repo := &mockRestaurantRepo{
		createFn: func(ctx context.Context, r *domain.Restaurant) error {
			return domain.ErrConflict
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewRestaurantService(repo, nil, pub)

	if _, err := svc.Create(context.Background(), sampleRestaurant()); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Error("no event expected for a failed write")
	}
}

func TestRestaurantService_Create_PublishFailureIsNotFatal(t *testing.T) {
	pub := &mockPublisher{err: errors.New("nats down")}
	svc := usecases.NewRestaurantService(&mockRestaurantRepo{}, nil, pub)

	if _, err := svc.Create(context.Background(), sampleRestaurant()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRestaurantService_Update(t *testing.T) {
	existing := sampleRestaurant()
	existing.Name = "La Viña"
	existing.PriceCategory = domain.PriceMid

	var updated *domain.Restaurant
	repo := &mockRestaurantRepo{
		getByNameFn: func(ctx context.Context, name string) (*domain.Restaurant, error) {
			if name != "La Viña" {
				return nil, domain.ErrNotFound
			}
			cp := *existing
			return &cp, nil
		},
		updateFn: func(ctx context.Context, r *domain.Restaurant) error {
			updated = r
			return nil
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewRestaurantService(repo, nil, pub)

	rating := 2.0
	got, err := svc.Update(context.Background(), " La Viña ", domain.RestaurantPatch{
		Rating:     &rating,
		PriceRange: &domain.PriceRange{Lower: 15000, Upper: 20000},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated != got {
		t.Fatal("expected repository to receive the updated restaurant")
	}
	if got.Rating != 2 || got.PriceCategory != domain.PriceHigh {
		t.Errorf("unexpected result: rating %v, category %s", got.Rating, got.PriceCategory)
	}
	if got.Address != existing.Address {
		t.Error("fields absent from the patch must not change")
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.RestaurantUpdated {
		t.Errorf("expected one updated event, got %+v", pub.events)
	}
}

func TestRestaurantService_Update_Errors(t *testing.T) {
	repo := &mockRestaurantRepo{
		getByNameFn: func(ctx context.Context, name string) (*domain.Restaurant, error) {
			if name == "missing" {
				return nil, domain.ErrNotFound
			}
			return sampleRestaurant(), nil
		},
	}
	svc := usecases.NewRestaurantService(repo, nil, nil)

	if _, err := svc.Update(context.Background(), "missing", domain.RestaurantPatch{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	lat := 95.0
	if _, err := svc.Update(context.Background(), "present", domain.RestaurantPatch{Latitude: &lat}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRestaurantService_Delete(t *testing.T) {
	repo := &mockRestaurantRepo{
		deleteByNameFn: func(ctx context.Context, name string) (*domain.Restaurant, error) {
			return &domain.Restaurant{Name: name}, nil
		},
	}
	cache := newMockCache()
	pub := &mockPublisher{}
	svc := usecases.NewRestaurantService(repo, cache, pub)

	got, err := svc.Delete(context.Background(), "Txoko")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Txoko" {
		t.Errorf("expected deleted record, got %+v", got)
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.RestaurantDeleted {
		t.Errorf("expected one deleted event, got %+v", pub.events)
	}
	if v, _ := cache.Get(context.Background(), usecases.CatalogVersionKey); string(v) != "1" {
		t.Errorf("expected catalog version bump, got %q", v)
	}
}

func TestRestaurantService_List_ClampsPaging(t *testing.T) {
	var gotOffset, gotLimit int
	repo := &mockRestaurantRepo{
		listFn: func(ctx context.Context, offset, limit int) ([]domain.Restaurant, int, error) {
			gotOffset, gotLimit = offset, limit
			return nil, 0, nil
		},
	}
	svc := usecases.NewRestaurantService(repo, nil, nil)

	_, _, _ = svc.List(context.Background(), -4, 0)
	if gotOffset != 0 || gotLimit != usecases.DefaultListLimit {
		t.Errorf("expected 0/%d, got %d/%d", usecases.DefaultListLimit, gotOffset, gotLimit)
	}

	_, _, _ = svc.List(context.Background(), 40, 1000)
	if gotOffset != 40 || gotLimit != usecases.MaxListLimit {
		t.Errorf("expected 40/%d, got %d/%d", usecases.MaxListLimit, gotOffset, gotLimit)
	}
}

func TestRestaurantService_ImportBatch(t *testing.T) {
	boom := errors.New("disk full")
	repo := &mockRestaurantRepo{
		createFn: func(ctx context.Context, r *domain.Restaurant) error {
			switch r.Name {
			case "Taken Name":
				return domain.ErrConflict
			case "Broken Disk":
				return boom
			}
			return nil
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewRestaurantService(repo, nil, pub)

	valid := func(name string) domain.Restaurant {
		r := *sampleRestaurant()
		r.Name = name
		return r
	}
	invalid := valid("No")

	created, skipped, err := svc.ImportBatch(context.Background(), []domain.Restaurant{
		valid("First One"), invalid, valid("Taken Name"), valid("Second One"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 2 || created[0] != "First One" || created[1] != "Second One" {
		t.Errorf("unexpected created names: %v", created)
	}
	if skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", skipped)
	}
	if len(pub.events) != 0 {
		t.Error("batch import must not publish per-row events")
	}

	created, _, err = svc.ImportBatch(context.Background(), []domain.Restaurant{
		valid("Third One"), valid("Broken Disk"), valid("Never Reached"),
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if len(created) != 1 || created[0] != "Third One" {
		t.Errorf("expected names created before the failure, got %v", created)
	}
}

func TestRestaurantService_DeleteMany(t *testing.T) {
	var deleted []string
	repo := &mockRestaurantRepo{
		deleteByNameFn: func(ctx context.Context, name string) (*domain.Restaurant, error) {
			if name == "gone" {
				return nil, domain.ErrNotFound
			}
			deleted = append(deleted, name)
			return &domain.Restaurant{Name: name}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewRestaurantService(repo, cache, nil)

	if err := svc.DeleteMany(context.Background(), []string{"a", "gone", "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("expected 2 deletions, got %v", deleted)
	}
	if v, _ := cache.Get(context.Background(), usecases.CatalogVersionKey); string(v) != "1" {
		t.Errorf("expected catalog version bump, got %q", v)
	}
}

func TestRestaurantService_NotifyImported(t *testing.T) {
	pub := &mockPublisher{}
	svc := usecases.NewRestaurantService(&mockRestaurantRepo{}, nil, pub)

	svc.NotifyImported(context.Background(), []string{"a", "b"})
	if len(pub.events) != 1 || pub.events[0].Type != domain.RestaurantImported || len(pub.events[0].Names) != 2 {
		t.Errorf("unexpected events: %+v", pub.events)
	}
}
