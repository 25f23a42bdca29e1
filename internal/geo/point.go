// Package geo holds the canonical geographic point used across the service
// and the coordinate helpers the map session needs.
package geo

import (
	"fmt"
	"math"
)

// Source tells where a Point came from.
type Source string

const (
	SourceAlias    Source = "alias"
	SourceGeocoder Source = "geocoder"
	SourceFallback Source = "fallback"
	SourceClick    Source = "click"
	SourceDevice   Source = "device"
)

// Point is a resolved location. It is a value type; build a new one per
// search or click.
type Point struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label"`

	// Success is false when the point is a stand-in for a failed lookup.
	Success bool `json:"success"`
	// Confidence is the provider's relevance score when it reports one.
	Confidence float64 `json:"confidence,omitempty"`
	Source     Source  `json:"source"`
}

// Validate reports whether the coordinates are finite and within WGS84 bounds.
func (p Point) Validate() error {
	return ValidateCoordinates(p.Lat, p.Lon)
}

// ValidateCoordinates checks a raw latitude/longitude pair.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return fmt.Errorf("coordinates must be finite: lat=%v lon=%v", lat, lon)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", lon)
	}
	return nil
}

// NormalizeLon wraps a longitude into [-180, 180]. Clicks on a horizontally
// repeated world map report longitudes outside that range.
func NormalizeLon(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// FormatCoordinates renders the label used when no place name is known.
func FormatCoordinates(lat, lon float64) string {
	return fmt.Sprintf("Location (%.4f, %.4f)", lat, lon)
}
