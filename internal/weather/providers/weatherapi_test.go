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

func TestWeatherAPIFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "test-key" || q.Get("q") != "38.08,46.29" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{
			"location": {"name": "Tabriz", "lat": 38.08, "lon": 46.29},
			"current": {"last_updated_epoch": 1760860800, "temp_c": 11.2, "feelslike_c": 9.8,
				"humidity": 66, "wind_kph": 18, "pressure_mb": 1019, "vis_km": 10, "cloud": 50,
				"is_day": 1, "condition": {"text": "Patchy light drizzle"}}
		}`))
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(srv.Client(), "test-key", srv.URL, time.Second)
	r, err := p.Fetch(context.Background(), 38.08, 46.29)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if r.Provider != "weatherapi" || r.Name != "Tabriz" || r.Temperature != 11.2 {
		t.Errorf("reading = %+v", r)
	}
	if r.WindSpeed != 5 {
		t.Errorf("WindSpeed = %v, want 5", r.WindSpeed)
	}
	if r.Condition != "patchy light drizzle" || r.IconCode != "09d" {
		t.Errorf("condition = %q/%q", r.Condition, r.IconCode)
	}
	if r.VisibilityKm == nil || *r.VisibilityKm != 10 {
		t.Errorf("VisibilityKm = %v", r.VisibilityKm)
	}
}

func TestWeatherAPIMissingKey(t *testing.T) {
	p := NewWeatherAPIProvider(http.DefaultClient, "YOUR_API_KEY", "", time.Second)

	_, err := p.Fetch(context.Background(), 1, 2)
	var ce *apperror.ConfigurationError
	if !errors.As(err, &ce) || ce.Service != "WeatherAPI" {
		t.Fatalf("error = %v, want ConfigurationError", err)
	}
}

func TestWeatherAPIRejectedKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":2006,"message":"API key is invalid."}}`))
	}))
	defer srv.Close()

	_, err := NewWeatherAPIProvider(srv.Client(), "test-key", srv.URL, time.Second).Fetch(context.Background(), 1, 2)
	var pe *apperror.ProviderError
	if !errors.As(err, &pe) || pe.StatusCode != http.StatusUnauthorized {
		t.Fatalf("error = %v, want 401 ProviderError", err)
	}
}

func TestMapWeatherAPICondition(t *testing.T) {
	tests := map[string]string{
		"Sunny":                               "01",
		"Partly cloudy":                       "02",
		"Cloudy":                              "03",
		"Overcast":                            "04",
		"Mist":                                "50",
		"Moderate rain":                       "10",
		"Light rain shower":                   "09",
		"Heavy snow":                          "13",
		"Thundery outbreaks possible":         "11",
		"Moderate or heavy rain with thunder": "11",
		"":                                    "01",
	}
	for text, want := range tests {
		if got := mapWeatherAPICondition(text); got != want {
			t.Errorf("mapWeatherAPICondition(%q) = %q, want %q", text, got, want)
		}
	}
}
