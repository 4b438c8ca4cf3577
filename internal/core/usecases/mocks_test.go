package usecases_test

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/samirrijal/eatnear/internal/core/domain"
)

// --- Mock RestaurantRepository ---

type mockRestaurantRepo struct {
	createFn       func(ctx context.Context, r *domain.Restaurant) error
	updateFn       func(ctx context.Context, r *domain.Restaurant) error
	getByNameFn    func(ctx context.Context, name string) (*domain.Restaurant, error)
	deleteByNameFn func(ctx context.Context, name string) (*domain.Restaurant, error)
	listFn         func(ctx context.Context, offset, limit int) ([]domain.Restaurant, int, error)
	findInBoundsFn func(ctx context.Context, b domain.Bounds) ([]domain.Restaurant, error)
}

func (m *mockRestaurantRepo) Create(ctx context.Context, r *domain.Restaurant) error {
	if m.createFn != nil {
		return m.createFn(ctx, r)
	}
	return nil
}

func (m *mockRestaurantRepo) Update(ctx context.Context, r *domain.Restaurant) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, r)
	}
	return nil
}

func (m *mockRestaurantRepo) GetByName(ctx context.Context, name string) (*domain.Restaurant, error) {
	if m.getByNameFn != nil {
		return m.getByNameFn(ctx, name)
	}
	return nil, domain.ErrNotFound
}

func (m *mockRestaurantRepo) DeleteByName(ctx context.Context, name string) (*domain.Restaurant, error) {
	if m.deleteByNameFn != nil {
		return m.deleteByNameFn(ctx, name)
	}
	return nil, domain.ErrNotFound
}

func (m *mockRestaurantRepo) List(ctx context.Context, offset, limit int) ([]domain.Restaurant, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockRestaurantRepo) FindInBounds(ctx context.Context, b domain.Bounds) ([]domain.Restaurant, error) {
	if m.findInBoundsFn != nil {
		return m.findInBoundsFn(ctx, b)
	}
	return nil, nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockCache) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(string(m.data[key]), 10, 64)
	n++
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	events []domain.RestaurantEvent
	err    error
}

func (m *mockPublisher) PublishRestaurantEvent(ctx context.Context, e *domain.RestaurantEvent) error {
	m.events = append(m.events, *e)
	return m.err
}
