// Package ranking orders the candidates returned by a bounding-box query.
package ranking

import (
	"sort"

	"github.com/samirrijal/eatnear/internal/core/domain"
	"github.com/samirrijal/eatnear/internal/pkg/geospatial"
)

// Config holds the scoring constants.
type Config struct {
	Geo geospatial.Params

	// PriceMatchBonus is added when the candidate's tier equals the requested one.
	PriceMatchBonus float64

	// ToleranceSlackMeters admits candidates slightly beyond the radius.
	ToleranceSlackMeters float64

	// MaxEarthSpanMeters is the largest distance the score base can absorb.
	MaxEarthSpanMeters float64
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		Geo:                  geospatial.DefaultParams(),
		PriceMatchBonus:      10,
		ToleranceSlackMeters: 50,
		MaxEarthSpanMeters:   20010000,
	}
}

// Ranker filters candidates by exact distance and orders them by a composite
// score. It holds no mutable state and is safe for concurrent use.
type Ranker struct {
	cfg       Config
	estimator *geospatial.Estimator
}

// NewRanker creates a Ranker.
func NewRanker(cfg Config) *Ranker {
	return &Ranker{cfg: cfg, estimator: geospatial.NewEstimator(cfg.Geo)}
}

// Estimator returns a bounding-box estimator that shares the ranker's Earth
// constants.
func (r *Ranker) Estimator() *geospatial.Estimator {
	return r.estimator
}

// Rank computes the exact distance from req.Center to every candidate, drops
// the ones out of range, and returns the rest sorted by descending order
// score. Ties keep their input order. candidates is not modified.
func (r *Ranker) Rank(candidates []domain.Restaurant, req domain.SearchRequest) []domain.RankedRestaurant {
	ranked := make([]domain.RankedRestaurant, 0, len(candidates))

	for _, c := range candidates {
		d := r.cfg.Geo.Distance(req.Center, c.Location)
		if !r.withinTolerance(d, req.RadiusMeters) {
			continue
		}
		ranked = append(ranked, domain.RankedRestaurant{
			Restaurant: c,
			Distance:   d,
			OrderScore: r.score(d, c, req.PriceCategory),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OrderScore > ranked[j].OrderScore
	})
	return ranked
}

func (r *Ranker) withinTolerance(distance, radius float64) bool {
	return distance <= radius || distance-radius < r.cfg.ToleranceSlackMeters
}

// Higher is better. The bonus and the rating only reorder candidates a few
// meters apart.
func (r *Ranker) score(distance float64, c domain.Restaurant, want domain.PriceCategory) float64 {
	s := r.cfg.MaxEarthSpanMeters - distance + c.Rating
	if want != "" && c.PriceCategory == want {
		s += r.cfg.PriceMatchBonus
	}
	return s
}
