// Package display turns weather readings into presentation-ready values.
package display

import (
	"fmt"
	"math"
	"time"

	"github.com/i474232898/weathermap/internal/common"
	"github.com/i474232898/weathermap/internal/weather"
)

const unknownLocation = "Unknown Location"

// Model is the formatted content of the weather panel.
type Model struct {
	LocationName string  `json:"locationName"`
	Coordinates  string  `json:"coordinates"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`

	Temperature int    `json:"temperature"`
	FeelsLike   string `json:"feelsLike"`
	Humidity    string `json:"humidity"`
	Pressure    string `json:"pressure"`
	WindSpeed   string `json:"windSpeed"`
	Visibility  string `json:"visibility"`
	Cloudiness  string `json:"cloudiness"`
	Condition   string `json:"condition"`
	Icon        string `json:"icon"`
	IconCode    string `json:"iconCode"`

	LastUpdated     time.Time `json:"lastUpdated"`
	LastUpdatedText string    `json:"lastUpdatedText"`
	Synthetic       bool      `json:"synthetic,omitempty"`
}

// ToDisplay formats r for the weather panel. It performs no I/O and the
// result depends only on its arguments.
func ToDisplay(r weather.Reading, label string, at time.Time) Model {
	name := label
	if name == "" {
		name = r.Name
	}
	if name == "" {
		name = unknownLocation
	}

	visibility := "N/A km"
	if r.VisibilityKm != nil {
		visibility = fmt.Sprintf("%.1f km", *r.VisibilityKm)
	}

	return Model{
		LocationName:    name,
		Coordinates:     FormatCoordinates(r.Lat, r.Lon),
		Lat:             r.Lat,
		Lon:             r.Lon,
		Temperature:     int(math.Round(r.Temperature)),
		FeelsLike:       fmt.Sprintf("%d °C", int(math.Round(r.FeelsLike))),
		Humidity:        fmt.Sprintf("%s %%", trimFloat(r.Humidity)),
		Pressure:        fmt.Sprintf("%s hPa", trimFloat(r.Pressure)),
		WindSpeed:       fmt.Sprintf("%.1f m/s", r.WindSpeed),
		Visibility:      visibility,
		Cloudiness:      fmt.Sprintf("%s %%", trimFloat(r.Cloudiness)),
		Condition:       common.Capitalize(r.Condition),
		Icon:            Icon(r.IconCode),
		IconCode:        r.IconCode,
		LastUpdated:     at,
		LastUpdatedText: "Last updated: " + at.Format("15:04:05"),
		Synthetic:       r.Synthetic,
	}
}

// FormatCoordinates renders the coordinates slot.
func FormatCoordinates(lat, lon float64) string {
	return fmt.Sprintf("Lat: %.4f, Lon: %.4f", lat, lon)
}

// trimFloat prints integral values without a fraction, as providers send them.
func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

// Mapper stamps models with the current time.
type Mapper struct {
	now func() time.Time
}

// NewMapper returns a Mapper using now, or time.Now when nil.
func NewMapper(now func() time.Time) *Mapper {
	if now == nil {
		now = time.Now
	}
	return &Mapper{now: now}
}

func (m *Mapper) ToDisplay(r weather.Reading, label string) Model {
	return ToDisplay(r, label, m.now())
}
