package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/eatnear/internal/core/domain"
	"github.com/samirrijal/eatnear/internal/core/ports"
	"github.com/samirrijal/eatnear/internal/core/ranking"
	"github.com/samirrijal/eatnear/internal/pkg/geospatial"
	"github.com/samirrijal/eatnear/internal/pkg/metrics"
)

// Search result limits.
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 200
)

// CatalogVersionKey holds a counter bumped on every catalog write. Search
// cache keys embed it, so a write orphans every cached search at once.
const CatalogVersionKey = "restaurants:catalog_version"

var tracer = otel.Tracer("github.com/samirrijal/eatnear/internal/core/usecases")

// SearchService answers proximity queries: a bounding-box range query
// followed by exact ranking.
type SearchService struct {
	restaurants ports.RestaurantRepository
	cache       ports.CacheService
	ranker      *ranking.Ranker
	estimator   *geospatial.Estimator
	cacheTTL    int
}

// NewSearchService creates a new SearchService. cache may be nil.
func NewSearchService(restaurants ports.RestaurantRepository, cache ports.CacheService, ranker *ranking.Ranker, cacheTTL int) *SearchService {
	return &SearchService{
		restaurants: restaurants,
		cache:       cache,
		ranker:      ranker,
		estimator:   ranker.Estimator(),
		cacheTTL:    cacheTTL,
	}
}

// cachedResult keeps the order score, which RankedRestaurant hides from JSON.
type cachedResult struct {
	Restaurant domain.Restaurant `json:"restaurant"`
	Distance   float64           `json:"distance"`
	OrderScore float64           `json:"order_score"`
}

// Search returns restaurants near req.Center, best match first.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) ([]domain.RankedRestaurant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Limit <= 0 {
		req.Limit = DefaultSearchLimit
	}
	if req.Limit > MaxSearchLimit {
		req.Limit = MaxSearchLimit
	}

	ctx, span := tracer.Start(ctx, "SearchService.Search")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("search.latitude", req.Center.Lat),
		attribute.Float64("search.longitude", req.Center.Lon),
		attribute.Float64("search.radius_meters", req.RadiusMeters),
		attribute.String("search.price_category", string(req.PriceCategory)),
	)

	cacheKey := s.cacheKey(ctx, req)
	if cacheKey != "" {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached []cachedResult
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.CacheHits.WithLabelValues("search").Inc()
				span.SetAttributes(attribute.Bool("search.cache_hit", true))
				return fromCache(cached), nil
			}
		}
		metrics.CacheMisses.WithLabelValues("search").Inc()
	}

	start := time.Now()
	bounds := s.estimator.BoundingBox(req.Center, req.RadiusMeters)

	candidates, err := s.restaurants.FindInBounds(ctx, bounds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "range query failed")
		return nil, fmt.Errorf("find in bounds: %w", err)
	}

	ranked := s.ranker.Rank(candidates, req)
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	metrics.SearchCandidates.Observe(float64(len(candidates)))
	metrics.SearchResults.Observe(float64(len(ranked)))
	span.SetAttributes(
		attribute.Int("search.candidates", len(candidates)),
		attribute.Int("search.results", len(ranked)),
	)

	if len(ranked) > req.Limit {
		ranked = ranked[:req.Limit]
	}

	if cacheKey != "" {
		if data, err := json.Marshal(toCache(ranked)); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}

	return ranked, nil
}

// cacheKey returns "" when caching is off.
func (s *SearchService) cacheKey(ctx context.Context, req domain.SearchRequest) string {
	if s.cache == nil || s.cacheTTL <= 0 {
		return ""
	}
	version := "0"
	if data, err := s.cache.Get(ctx, CatalogVersionKey); err == nil {
		if _, err := strconv.ParseInt(string(data), 10, 64); err == nil {
			version = string(data)
		}
	}
	return fmt.Sprintf("restaurants:search:v%s:%.6f:%.6f:%.0f:%s:%d",
		version, req.Center.Lat, req.Center.Lon, req.RadiusMeters, req.PriceCategory, req.Limit)
}

func toCache(ranked []domain.RankedRestaurant) []cachedResult {
	out := make([]cachedResult, len(ranked))
	for i, r := range ranked {
		out[i] = cachedResult{Restaurant: r.Restaurant, Distance: r.Distance, OrderScore: r.OrderScore}
	}
	return out
}

func fromCache(cached []cachedResult) []domain.RankedRestaurant {
	out := make([]domain.RankedRestaurant, len(cached))
	for i, c := range cached {
		out[i] = domain.RankedRestaurant{Restaurant: c.Restaurant, Distance: c.Distance, OrderScore: c.OrderScore}
	}
	return out
}
