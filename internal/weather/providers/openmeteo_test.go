package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/i474232898/weathermap/internal/apperror"
)

func TestOpenMeteoFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("latitude") != "29.5918" || q.Get("longitude") != "52.5837" {
			t.Errorf("unexpected coordinates: %s", r.URL.RawQuery)
		}
		if q.Get("wind_speed_unit") != "ms" || q.Get("timeformat") != "unixtime" {
			t.Errorf("unexpected units: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{
			"latitude": 29.59, "longitude": 52.58,
			"current": {"time": 1760860800, "temperature_2m": 24.6, "apparent_temperature": 23.9,
				"relative_humidity_2m": 21, "pressure_msl": 1012.3, "wind_speed_10m": 4.26,
				"cloud_cover": 75, "visibility": 24140, "weather_code": 61, "is_day": 0}
		}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL, time.Second)
	r, err := p.Fetch(context.Background(), 29.5918, 52.5837)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if r.Provider != "openmeteo" || r.Temperature != 24.6 || r.FeelsLike != 23.9 {
		t.Errorf("reading = %+v", r)
	}
	if r.WindSpeed != 4.3 || r.Cloudiness != 75 || r.Pressure != 1012.3 {
		t.Errorf("wind/clouds/pressure = %v/%v/%v", r.WindSpeed, r.Cloudiness, r.Pressure)
	}
	if r.VisibilityKm == nil || *r.VisibilityKm != 24.1 {
		t.Errorf("VisibilityKm = %v, want 24.1", r.VisibilityKm)
	}
	if r.Condition != "rain" || r.IconCode != "10n" {
		t.Errorf("condition = %q/%q", r.Condition, r.IconCode)
	}
	if r.Lat != 29.59 || !r.ObservedAt.Equal(time.Unix(1760860800, 0)) {
		t.Errorf("lat/time = %v/%v", r.Lat, r.ObservedAt)
	}
}

func TestOpenMeteoMissingCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"latitude": 1, "longitude": 2}`))
	}))
	defer srv.Close()

	_, err := NewOpenMeteoProvider(srv.Client(), srv.URL, time.Second).Fetch(context.Background(), 1, 2)
	var pe *apperror.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want ProviderError", err)
	}
}

func TestMapOpenMeteoCondition(t *testing.T) {
	tests := []struct {
		code int
		desc string
		icon string
	}{
		{0, "clear sky", "01"},
		{2, "partly cloudy", "03"},
		{45, "fog", "50"},
		{55, "drizzle", "09"},
		{75, "snow", "13"},
		{81, "rain showers", "09"},
		{96, "thunderstorm", "11"},
		{42, "Unknown", "01"},
	}
	for _, tt := range tests {
		desc, icon := mapOpenMeteoCondition(tt.code)
		if desc != tt.desc || icon != tt.icon {
			t.Errorf("mapOpenMeteoCondition(%d) = %q, %q; want %q, %q", tt.code, desc, icon, tt.desc, tt.icon)
		}
	}
}
