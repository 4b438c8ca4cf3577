package domain

import "fmt"

// Legal coordinate domain in degrees.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Validate reports whether both fields lie inside the legal coordinate domain.
// NaN is outside it.
func (p GeoPoint) Validate() error {
	if !(p.Lat >= MinLatitude && p.Lat <= MaxLatitude) {
		return fmt.Errorf("%w: latitude must be between -90 and 90, got %v", ErrInvalidInput, p.Lat)
	}
	if !(p.Lon >= MinLongitude && p.Lon <= MaxLongitude) {
		return fmt.Errorf("%w: longitude must be between -180 and 180, got %v", ErrInvalidInput, p.Lon)
	}
	return nil
}

// Bounds represents an axis-aligned latitude/longitude rectangle.
// Low holds the minimum latitude and longitude, High the maximum.
type Bounds struct {
	Low  GeoPoint `json:"low"`
	High GeoPoint `json:"high"`
}

// Contains reports whether p lies inside the rectangle, edges included.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.Low.Lat && p.Lat <= b.High.Lat &&
		p.Lon >= b.Low.Lon && p.Lon <= b.High.Lon
}
