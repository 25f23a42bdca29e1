package weather

import (
	"time"
)

// Reading is one normalized current-conditions observation. A Reading is
// produced per request and never merged with an earlier one.
type Reading struct {
	Provider   string    `json:"provider"`
	Synthetic  bool      `json:"synthetic,omitempty"`
	ObservedAt time.Time `json:"observedAt"` // always UTC

	// Coordinates as echoed by the provider.
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name,omitempty"`

	Temperature float64 `json:"temperatureC"`
	FeelsLike   float64 `json:"feelsLikeC"`
	Humidity    float64 `json:"humidityPercent"`
	Pressure    float64 `json:"pressureHpa"`
	WindSpeed   float64 `json:"windSpeed"` // m/s, one decimal

	// VisibilityKm is nil when the provider did not report visibility.
	VisibilityKm *float64 `json:"visibilityKm,omitempty"`
	Cloudiness   float64  `json:"cloudinessPercent"`

	Condition string `json:"condition"`
	IconCode  string `json:"iconCode"`
}
