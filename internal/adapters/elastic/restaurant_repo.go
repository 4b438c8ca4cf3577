// Package elastic keeps restaurants in an Elasticsearch index with a
// geo_point location, answering the bounding-box query natively.
package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/samirrijal/eatnear/internal/core/domain"
	"github.com/samirrijal/eatnear/internal/pkg/metrics"
)

// maxCandidates bounds a single range query; it matches the default
// index.max_result_window.
const maxCandidates = 10000

const mapping = `{
  "mappings": {
    "properties": {
      "id":             {"type": "keyword"},
      "name":           {"type": "keyword"},
      "address":        {"type": "text"},
      "location":       {"type": "geo_point"},
      "rating":         {"type": "double"},
      "price_lower":    {"type": "double"},
      "price_upper":    {"type": "double"},
      "price_category": {"type": "keyword"},
      "created_at":     {"type": "date"},
      "updated_at":     {"type": "date"}
    }
  }
}`

// document is the indexed form. The restaurant name is the document ID.
type document struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Address       string           `json:"address"`
	Location      elastic.GeoPoint `json:"location"`
	Rating        float64          `json:"rating"`
	PriceLower    *float64         `json:"price_lower"`
	PriceUpper    *float64         `json:"price_upper"`
	PriceCategory string           `json:"price_category"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func toDocument(r *domain.Restaurant) document {
	d := document{
		ID:            r.ID,
		Name:          r.Name,
		Address:       r.Address,
		Location:      elastic.GeoPoint{Lat: r.Location.Lat, Lon: r.Location.Lon},
		Rating:        r.Rating,
		PriceCategory: string(r.PriceCategory),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.PriceRange != nil {
		lower, upper := r.PriceRange.Lower, r.PriceRange.Upper
		d.PriceLower, d.PriceUpper = &lower, &upper
	}
	return d
}

func (d document) restaurant() domain.Restaurant {
	r := domain.Restaurant{
		ID:            d.ID,
		Name:          d.Name,
		Address:       d.Address,
		Location:      domain.GeoPoint{Lat: d.Location.Lat, Lon: d.Location.Lon},
		Rating:        d.Rating,
		PriceCategory: domain.PriceCategory(d.PriceCategory),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if d.PriceLower != nil && d.PriceUpper != nil {
		r.PriceRange = &domain.PriceRange{Lower: *d.PriceLower, Upper: *d.PriceUpper}
	}
	return r
}

// Store implements ports.RestaurantRepository on Elasticsearch.
type Store struct {
	client *elastic.Client
	index  string
}

// New connects to the cluster at url.
func New(url, index string, options ...elastic.ClientOptionFunc) (*Store, error) {
	opts := append([]elastic.ClientOptionFunc{elastic.SetURL(url), elastic.SetSniff(false)}, options...)
	client, err := elastic.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("elastic connect: %w", err)
	}
	return &Store{client: client, index: index}, nil
}

// EnsureIndex creates the index with its mapping when missing.
func (s *Store) EnsureIndex(ctx context.Context) error {
	exists, err := s.client.IndexExists(s.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	if exists {
		return nil
	}
	if _, err := s.client.CreateIndex(s.index).BodyString(mapping).Do(ctx); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Ping checks the cluster is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.ClusterHealth().Index(s.index).Do(ctx)
	return err
}

// Close stops the client's background goroutines.
func (s *Store) Close() {
	s.client.Stop()
}

// Create indexes a new restaurant. A taken name yields domain.ErrConflict.
func (s *Store) Create(ctx context.Context, r *domain.Restaurant) error {
	_, err := s.client.Index().
		Index(s.index).
		Id(r.Name).
		OpType("create").
		BodyJson(toDocument(r)).
		Refresh("wait_for").
		Do(ctx)
	return translate(err)
}

// Update replaces the stored document for r.Name.
func (s *Store) Update(ctx context.Context, r *domain.Restaurant) error {
	_, err := s.client.Update().
		Index(s.index).
		Id(r.Name).
		Doc(toDocument(r)).
		Refresh("wait_for").
		Do(ctx)
	return translate(err)
}

// GetByName fetches a restaurant by its unique name.
func (s *Store) GetByName(ctx context.Context, name string) (*domain.Restaurant, error) {
	res, err := s.client.Get().Index(s.index).Id(name).Do(ctx)
	if err != nil {
		return nil, translate(err)
	}
	if !res.Found {
		return nil, domain.ErrNotFound
	}
	var d document
	if err := json.Unmarshal(res.Source, &d); err != nil {
		return nil, fmt.Errorf("decode %q: %w", name, err)
	}
	r := d.restaurant()
	return &r, nil
}

// DeleteByName removes a restaurant and returns the deleted document.
func (s *Store) DeleteByName(ctx context.Context, name string) (*domain.Restaurant, error) {
	r, err := s.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if _, err := s.client.Delete().Index(s.index).Id(name).Refresh("wait_for").Do(ctx); err != nil {
		return nil, translate(err)
	}
	return r, nil
}

// List returns a page of restaurants ordered by name plus the total count.
func (s *Store) List(ctx context.Context, offset, limit int) ([]domain.Restaurant, int, error) {
	res, err := s.client.Search().
		Index(s.index).
		Query(elastic.NewMatchAllQuery()).
		Sort("name", true).
		From(offset).
		Size(limit).
		TrackTotalHits(true).
		Do(ctx)
	if err != nil {
		return nil, 0, translate(err)
	}
	items, err := decodeHits(res)
	return items, int(res.TotalHits()), err
}

// FindInBounds runs a geo_bounding_box filter on the location field.
func (s *Store) FindInBounds(ctx context.Context, b domain.Bounds) ([]domain.Restaurant, error) {
	q := elastic.NewBoolQuery().Filter(
		elastic.NewGeoBoundingBoxQuery("location").
			TopLeft(b.High.Lat, b.Low.Lon).
			BottomRight(b.Low.Lat, b.High.Lon),
	)
	res, err := s.client.Search().
		Index(s.index).
		Query(q).
		Size(maxCandidates).
		TrackTotalHits(true).
		Do(ctx)
	if err != nil {
		return nil, translate(err)
	}
	items, err := decodeHits(res)
	if err != nil {
		return nil, err
	}
	if total := res.TotalHits(); total > int64(len(items)) {
		metrics.SearchCandidatesTruncated.WithLabelValues("elastic").Inc()
		slog.WarnContext(ctx, "bounding-box candidates truncated",
			"matched", total, "returned", len(items), "low", b.Low, "high", b.High)
	}
	return items, nil
}

func decodeHits(res *elastic.SearchResult) ([]domain.Restaurant, error) {
	if res.Hits == nil {
		return nil, nil
	}
	out := make([]domain.Restaurant, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var d document
		if err := json.Unmarshal(hit.Source, &d); err != nil {
			return nil, fmt.Errorf("decode hit %s: %w", hit.Id, err)
		}
		out = append(out, d.restaurant())
	}
	return out, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case elastic.IsNotFound(err):
		return domain.ErrNotFound
	case elastic.IsConflict(err):
		return domain.ErrConflict
	}
	return err
}
