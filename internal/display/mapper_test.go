package display

import (
	"testing"
	"time"

	"github.com/i474232898/weathermap/internal/weather"
)

func visibility(km float64) *float64 { return &km }

func clearSky() weather.Reading {
	return weather.Reading{
		Provider:     "openweathermap",
		Lat:          35.6892,
		Lon:          51.389,
		Name:         "Tehran",
		Temperature:  19.4,
		FeelsLike:    18.6,
		Humidity:     37,
		Pressure:     1014,
		WindSpeed:    3.1,
		VisibilityKm: visibility(10),
		Cloudiness:   0,
		Condition:    "clear sky",
		IconCode:     "01d",
	}
}

func TestToDisplay(t *testing.T) {
	at := time.Date(2026, 10, 19, 14, 5, 9, 0, time.UTC)
	got := ToDisplay(clearSky(), "تهران، ایران", at)

	want := Model{
		LocationName:    "تهران، ایران",
		Coordinates:     "Lat: 35.6892, Lon: 51.3890",
		Lat:             35.6892,
		Lon:             51.389,
		Temperature:     19,
		FeelsLike:       "19 °C",
		Humidity:        "37 %",
		Pressure:        "1014 hPa",
		WindSpeed:       "3.1 m/s",
		Visibility:      "10.0 km",
		Cloudiness:      "0 %",
		Condition:       "Clear sky",
		Icon:            "fas fa-sun",
		IconCode:        "01d",
		LastUpdated:     at,
		LastUpdatedText: "Last updated: 14:05:09",
	}
	if got != want {
		t.Fatalf("ToDisplay() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestToDisplayIsDeterministic(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := clearSky()

	first := ToDisplay(r, "x", at)
	for i := 0; i < 10; i++ {
		if got := ToDisplay(r, "x", at); got != first {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestToDisplayLabelPrecedence(t *testing.T) {
	r := clearSky()
	at := time.Time{}

	if got := ToDisplay(r, "", at).LocationName; got != "Tehran" {
		t.Errorf("empty label should use provider name, got %q", got)
	}

	r.Name = ""
	if got := ToDisplay(r, "", at).LocationName; got != "Unknown Location" {
		t.Errorf("got %q, want Unknown Location", got)
	}
}

func TestToDisplayMissingOptionalFields(t *testing.T) {
	r := clearSky()
	r.VisibilityKm = nil
	r.Humidity = 55.5

	got := ToDisplay(r, "x", time.Time{})
	if got.Visibility != "N/A km" {
		t.Errorf("Visibility = %q", got.Visibility)
	}
	if got.Humidity != "55.5 %" {
		t.Errorf("Humidity = %q", got.Humidity)
	}
}

func TestIconTable(t *testing.T) {
	tests := map[string]string{
		"01d": "fas fa-sun",
		"01n": "fas fa-moon",
		"10n": "fas fa-cloud-moon-rain",
		"50d": "fas fa-smog",
		"99x": UnknownIcon,
		"":    UnknownIcon,
	}
	for code, want := range tests {
		if got := Icon(code); got != want {
			t.Errorf("Icon(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestMapperUsesClock(t *testing.T) {
	at := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	m := NewMapper(func() time.Time { return at })

	if got := m.ToDisplay(clearSky(), "x"); !got.LastUpdated.Equal(at) {
		t.Fatalf("LastUpdated = %v, want %v", got.LastUpdated, at)
	}
}
