package geospatial

import (
	"math"

	"github.com/samirrijal/eatnear/internal/core/domain"
)

// minCircumference is the parallel length (meters) below which the center is
// treated as sitting on a pole.
const minCircumference = 1e-6

// Estimator turns a center and radius into a latitude/longitude rectangle
// for an indexed range query.
//
// The rectangle over-approximates the true geodesic circle, worst at the
// corners. That is fine because exact filtering happens after the query.
// Error is negligible only for radii well under ~200 km. Boxes crossing the
// antimeridian are clamped, not split.
type Estimator struct {
	params Params
}

// NewEstimator creates an Estimator using the given constants.
func NewEstimator(p Params) *Estimator {
	return &Estimator{params: p}
}

// BoundingBox returns a rectangle around center that contains every point
// within radiusMeters. The caller validates its inputs; output is always
// clamped to the legal coordinate domain.
func (e *Estimator) BoundingBox(center domain.GeoPoint, radiusMeters float64) domain.Bounds {
	lowLat, highLat := e.latitudeRange(center.Lat, radiusMeters)
	lowLon, highLon := e.longitudeRange(center.Lat, center.Lon, radiusMeters)

	return domain.Bounds{
		Low:  domain.GeoPoint{Lat: lowLat, Lon: lowLon},
		High: domain.GeoPoint{Lat: highLat, Lon: highLon},
	}
}

// Parallels are evenly spaced, so a meter is worth the same number of
// latitude degrees everywhere.
func (e *Estimator) latitudeRange(lat, radiusMeters float64) (float64, float64) {
	delta := radiusMeters / e.params.MetersPerDegreeLatitude

	return clamp(lat-delta, domain.MinLatitude, domain.MaxLatitude),
		clamp(lat+delta, domain.MinLatitude, domain.MaxLatitude)
}

// Meridians converge toward the poles, so the longitude span of a meter grows
// with latitude.
func (e *Estimator) longitudeRange(lat, lon, radiusMeters float64) (float64, float64) {
	circumference := 2 * math.Pi * e.params.EarthRadiusMeters * math.Cos(toRad(lat))
	if circumference < minCircumference {
		return domain.MinLongitude, domain.MaxLongitude
	}

	metersPerDegree := circumference / 360
	delta := radiusMeters / metersPerDegree
	if delta >= 180 {
		return domain.MinLongitude, domain.MaxLongitude
	}

	return clamp(lon-delta, domain.MinLongitude, domain.MaxLongitude),
		clamp(lon+delta, domain.MinLongitude, domain.MaxLongitude)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
