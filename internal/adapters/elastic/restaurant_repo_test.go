package elastic_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	olivere "github.com/olivere/elastic/v7"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/eatnear/internal/adapters/elastic"
	"github.com/samirrijal/eatnear/internal/core/domain"
	"github.com/samirrijal/eatnear/internal/pkg/metrics"
)

// fakeCluster answers with canned JSON per path suffix and records bodies.
type fakeCluster struct {
	mu     sync.Mutex
	bodies map[string]string
	routes map[string]struct {
		status int
		body   string
	}
}

func newFakeCluster() *fakeCluster {
	return &fakeCluster{
		bodies: map[string]string{},
		routes: map[string]struct {
			status int
			body   string
		}{},
	}
}

func (f *fakeCluster) on(suffix string, status int, body string) {
	f.routes[suffix] = struct {
		status int
		body   string
	}{status, body}
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.bodies[r.URL.Path] = string(body)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	for suffix, route := range f.routes {
		if strings.HasSuffix(r.URL.Path, suffix) {
			w.WriteHeader(route.status)
			_, _ = io.WriteString(w, route.body)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, `{"error":{"type":"resource_not_found_exception"},"status":404}`)
}

func newStore(t *testing.T, f *fakeCluster) *elastic.Store {
	t.Helper()
	ts := httptest.NewServer(f)
	t.Cleanup(ts.Close)

	s, err := elastic.New(ts.URL, "restaurants", olivere.SetHealthcheck(false))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

const searchResponse = `{
  "took": 1,
  "hits": {
    "total": {"value": 2, "relation": "eq"},
    "hits": [
      {"_index": "restaurants", "_id": "Txoko", "_source": {
        "id": "1", "name": "Txoko", "address": "Calle Ercilla 1",
        "location": {"lat": 43.26, "lon": -2.93}, "rating": 4,
        "price_lower": 1000, "price_upper": 2000, "price_category": "LOW",
        "created_at": "2026-01-02T03:04:05Z", "updated_at": "2026-01-02T03:04:05Z"}},
      {"_index": "restaurants", "_id": "Asador", "_source": {
        "id": "2", "name": "Asador", "address": "Gran Via 10",
        "location": {"lat": 43.27, "lon": -2.94}, "rating": 0,
        "price_lower": null, "price_upper": null, "price_category": "",
        "created_at": "2026-01-02T03:04:05Z", "updated_at": "2026-01-02T03:04:05Z"}}
    ]
  }
}`

func TestStore_FindInBounds(t *testing.T) {
	f := newFakeCluster()
	f.on("/_search", http.StatusOK, searchResponse)
	s := newStore(t, f)

	got, err := s.FindInBounds(context.Background(), domain.Bounds{
		Low:  domain.GeoPoint{Lat: 43.2, Lon: -3.0},
		High: domain.GeoPoint{Lat: 43.3, Lon: -2.9},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Txoko", got[0].Name)
	assert.Equal(t, domain.GeoPoint{Lat: 43.26, Lon: -2.93}, got[0].Location)
	require.NotNil(t, got[0].PriceRange)
	assert.Equal(t, 2000.0, got[0].PriceRange.Upper)
	assert.Equal(t, domain.PriceLow, got[0].PriceCategory)
	assert.Nil(t, got[1].PriceRange)

	body := f.bodies["/restaurants/_search"]
	assert.Contains(t, body, "geo_bounding_box")
	assert.Contains(t, body, `"location"`)
}

func TestStore_FindInBoundsCountsTruncation(t *testing.T) {
	truncated := metrics.SearchCandidatesTruncated.WithLabelValues("elastic")
	bounds := domain.Bounds{
		Low:  domain.GeoPoint{Lat: 43.2, Lon: -3.0},
		High: domain.GeoPoint{Lat: 43.3, Lon: -2.9},
	}

	f := newFakeCluster()
	f.on("/_search", http.StatusOK, searchResponse)
	s := newStore(t, f)

	before := testutil.ToFloat64(truncated)
	_, err := s.FindInBounds(context.Background(), bounds)
	require.NoError(t, err)
	assert.Equal(t, before, testutil.ToFloat64(truncated), "complete result must not count as truncated")

	f.on("/_search", http.StatusOK, strings.Replace(searchResponse, `"value": 2`, `"value": 12000`, 1))
	got, err := s.FindInBounds(context.Background(), bounds)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, before+1, testutil.ToFloat64(truncated))
}

func TestStore_List(t *testing.T) {
	f := newFakeCluster()
	f.on("/_search", http.StatusOK, searchResponse)
	s := newStore(t, f)

	items, total, err := s.List(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)
	assert.Contains(t, f.bodies["/restaurants/_search"], `"name"`)
}

func TestStore_CreateConflict(t *testing.T) {
	f := newFakeCluster()
	f.on("/Txoko", http.StatusConflict,
		`{"error":{"type":"version_conflict_engine_exception","reason":"document already exists"},"status":409}`)
	s := newStore(t, f)

	err := s.Create(context.Background(), &domain.Restaurant{Name: "Txoko"})
	assert.True(t, errors.Is(err, domain.ErrConflict), "expected ErrConflict, got %v", err)
}

func TestStore_GetByNameNotFound(t *testing.T) {
	f := newFakeCluster()
	f.on("/Missing", http.StatusNotFound, `{"_index":"restaurants","_id":"Missing","found":false}`)
	s := newStore(t, f)

	_, err := s.GetByName(context.Background(), "Missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestStore_GetByName(t *testing.T) {
	f := newFakeCluster()
	f.on("/Txoko", http.StatusOK, `{"_index":"restaurants","_id":"Txoko","found":true,"_source":{
		"id":"1","name":"Txoko","address":"Calle Ercilla 1","location":{"lat":1,"lon":2},
		"rating":5,"price_lower":null,"price_upper":null,"price_category":"",
		"created_at":"2026-01-02T03:04:05Z","updated_at":"2026-01-02T03:04:05Z"}}`)
	s := newStore(t, f)

	got, err := s.GetByName(context.Background(), "Txoko")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)
	assert.Equal(t, 5.0, got.Rating)
	assert.Equal(t, domain.GeoPoint{Lat: 1, Lon: 2}, got.Location)
}
