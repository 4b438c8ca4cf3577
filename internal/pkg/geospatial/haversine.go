// Package geospatial holds the geometry behind proximity search: the
// rectangular pre-filter handed to storage range queries and the exact
// great-circle distance used to rank what comes back.
//
// All math treats the Earth as a sphere with the equatorial radius. The
// results are approximations that stay accurate for search radii well under
// ~200 km and are not meant for anything larger.
package geospatial

import (
	"math"

	"github.com/samirrijal/eatnear/internal/core/domain"
)

// Params are the Earth constants shared by the estimator and the distance
// computation. Both must see the same values.
type Params struct {
	EarthRadiusMeters       float64
	MetersPerDegreeLatitude float64 // mean meridional arc length of one degree
}

// DefaultParams returns the equatorial radius and mean meridional degree length.
func DefaultParams() Params {
	return Params{
		EarthRadiusMeters:       6378137,
		MetersPerDegreeLatitude: 111132.92,
	}
}

// Distance returns the haversine great-circle distance in meters.
func (p Params) Distance(a, b domain.GeoPoint) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return p.EarthRadiusMeters * c
}

// Haversine calculates the great-circle distance in meters between two points
// using DefaultParams.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	return DefaultParams().Distance(
		domain.GeoPoint{Lat: lat1, Lon: lon1},
		domain.GeoPoint{Lat: lat2, Lon: lon2},
	)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
