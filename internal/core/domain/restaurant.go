package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// PriceCategory is the coarse price tier of a restaurant.
type PriceCategory string

const (
	PriceLow  PriceCategory = "LOW"
	PriceMid  PriceCategory = "MID"
	PriceHigh PriceCategory = "HIGH"
)

// Median price limits separating the tiers.
const (
	LowPriceLimit = 5000.0
	MidPriceLimit = 10000.0
)

// ParsePriceCategory parses a tier name case-insensitively.
// An empty string yields the empty (absent) category.
func ParsePriceCategory(s string) (PriceCategory, error) {
	switch PriceCategory(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case PriceLow:
		return PriceLow, nil
	case PriceMid:
		return PriceMid, nil
	case PriceHigh:
		return PriceHigh, nil
	}
	return "", fmt.Errorf("%w: priceCategory must be one of LOW, MID, HIGH, got %q", ErrInvalidInput, s)
}

// PriceRange is the typical spend at a restaurant.
type PriceRange struct {
	Lower float64 `json:"price_range_lower_bound"`
	Upper float64 `json:"price_range_upper_bound"`
}

// Category derives the price tier from the median of the range.
func (r PriceRange) Category() PriceCategory {
	median := (r.Lower + r.Upper) / 2
	if median < LowPriceLimit {
		return PriceLow
	}
	if median < MidPriceLimit {
		return PriceMid
	}
	return PriceHigh
}

func (r PriceRange) validate() error {
	if math.IsNaN(r.Lower) || math.IsNaN(r.Upper) || math.IsInf(r.Upper, 0) {
		return fmt.Errorf("%w: price range bounds must be finite numbers", ErrInvalidInput)
	}
	if r.Lower < 1 {
		return fmt.Errorf("%w: price range lower bound must be at least 1", ErrInvalidInput)
	}
	if r.Upper < 2 {
		return fmt.Errorf("%w: price range upper bound must be at least 2", ErrInvalidInput)
	}
	if r.Lower > r.Upper {
		return fmt.Errorf("%w: price range lower bound exceeds upper bound", ErrInvalidInput)
	}
	return nil
}

// Restaurant is a stored record and the candidate type fed to the ranker.
// Names are unique and act as the public identifier.
type Restaurant struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Address       string        `json:"address"`
	Location      GeoPoint      `json:"location"`
	Rating        float64       `json:"rating"`
	PriceRange    *PriceRange   `json:"price_range,omitempty"`
	PriceCategory PriceCategory `json:"price_category,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Validate applies the record rules enforced on create and update.
func (r *Restaurant) Validate() error {
	if len(strings.TrimSpace(r.Name)) < 3 {
		return fmt.Errorf("%w: name must be at least 3 characters", ErrInvalidInput)
	}
	if len(strings.TrimSpace(r.Address)) < 6 {
		return fmt.Errorf("%w: invalid address", ErrInvalidInput)
	}
	if err := r.Location.Validate(); err != nil {
		return err
	}
	if r.Rating != 0 && (r.Rating < 1 || r.Rating > 5 || r.Rating != math.Trunc(r.Rating)) {
		return fmt.Errorf("%w: rating values can only be between 1 and 5", ErrInvalidInput)
	}
	if r.PriceRange != nil {
		if err := r.PriceRange.validate(); err != nil {
			return err
		}
	}
	return nil
}

// DerivePriceCategory sets PriceCategory from PriceRange, clearing it when
// no range is known.
func (r *Restaurant) DerivePriceCategory() {
	if r.PriceRange == nil {
		r.PriceCategory = ""
		return
	}
	r.PriceCategory = r.PriceRange.Category()
}

// RestaurantPatch carries a partial update. Nil fields are left untouched.
type RestaurantPatch struct {
	Address    *string     `json:"address,omitempty"`
	Latitude   *float64    `json:"latitude,omitempty"`
	Longitude  *float64    `json:"longitude,omitempty"`
	Rating     *float64    `json:"rating,omitempty"`
	PriceRange *PriceRange `json:"price_range,omitempty"`
}

// Apply copies the present fields onto r.
func (p RestaurantPatch) Apply(r *Restaurant) {
	if p.Address != nil {
		r.Address = *p.Address
	}
	if p.Latitude != nil {
		r.Location.Lat = *p.Latitude
	}
	if p.Longitude != nil {
		r.Location.Lon = *p.Longitude
	}
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	if p.PriceRange != nil {
		pr := *p.PriceRange
		r.PriceRange = &pr
	}
}

// RankedRestaurant is a candidate that survived ranking. It lives for a
// single request only.
type RankedRestaurant struct {
	Restaurant
	Distance   float64 `json:"distance"`
	OrderScore float64 `json:"-"`
}

// MaxSearchRadiusMeters caps the search distance; the bounding-box
// approximation degrades beyond a couple of hundred kilometres.
const MaxSearchRadiusMeters = 200000

// SearchRequest is one proximity query.
type SearchRequest struct {
	Center        GeoPoint
	RadiusMeters  float64
	PriceCategory PriceCategory // empty when the caller has no preference
	Limit         int
}

// Validate checks the request against the search input domain.
func (q SearchRequest) Validate() error {
	if err := q.Center.Validate(); err != nil {
		return err
	}
	if q.RadiusMeters <= 0 || q.RadiusMeters != math.Trunc(q.RadiusMeters) {
		return fmt.Errorf("%w: distance must be a positive integer number of meters", ErrInvalidInput)
	}
	if q.RadiusMeters > MaxSearchRadiusMeters {
		return fmt.Errorf("%w: distance must not exceed %d meters", ErrInvalidInput, MaxSearchRadiusMeters)
	}
	if _, err := ParsePriceCategory(string(q.PriceCategory)); err != nil {
		return err
	}
	return nil
}
