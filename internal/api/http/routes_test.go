package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weathermap/internal/apperror"
	"github.com/i474232898/weathermap/internal/display"
	"github.com/i474232898/weathermap/internal/geo"
	"github.com/i474232898/weathermap/internal/geolocation"
	"github.com/i474232898/weathermap/internal/location"
	"github.com/i474232898/weathermap/internal/orchestrator"
	"github.com/i474232898/weathermap/internal/session"
	"github.com/i474232898/weathermap/internal/store"
	"github.com/i474232898/weathermap/internal/weather"
	"github.com/i474232898/weathermap/internal/weather/providers"
)

type downProvider struct{}

func (downProvider) Name() string { return "down" }

func (downProvider) Fetch(ctx context.Context, lat, lon float64) (weather.Reading, error) {
	return weather.Reading{}, &apperror.ProviderError{Provider: "down", StatusCode: http.StatusServiceUnavailable}
}

func newTestApp(t *testing.T, provider weather.Provider) *fiber.App {
	t.Helper()

	table, err := location.NewAliasTable(location.DefaultAliases)
	if err != nil {
		t.Fatal(err)
	}
	fetcher, err := weather.NewFetcher(provider, nil, weather.PolicyFail)
	if err != nil {
		t.Fatal(err)
	}

	sess := session.New(session.Options{Center: location.DefaultFallback, Zoom: 10, MinZoom: 2, MaxZoom: 19, Animation: time.Second})
	displayStore := store.NewDisplayStore()
	orch := orchestrator.New(
		location.NewResolver(table, nil),
		location.NewLabeler(nil),
		fetcher,
		display.NewMapper(nil),
		sess,
		displayStore,
		orchestrator.Options{
			SearchZoom:  12,
			LocateZoom:  14,
			Geolocation: geolocation.DefaultOptions,
		},
	)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, Deps{
		Actions: orch,
		Map:     sess,
		Display: displayStore,
		Status:  Status{GeocodingProvider: "locationiq", WeatherProvider: provider.Name(), FailurePolicy: "fail"},
		Client:  ClientConfig{Center: location.DefaultFallback, Zoom: 10, MinZoom: 2, MaxZoom: 19, AnimationMs: 1000},
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string, out any) int {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestSearchAndState(t *testing.T) {
	app := newTestApp(t, providers.NewSyntheticProvider(1))

	var got actionResponse
	if code := do(t, app, http.MethodPost, "/api/v1/search", `{"query":"Tehran"}`, &got); code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if !got.OK || got.Display == nil || got.Display.LocationName != "تهران، ایران" {
		t.Fatalf("response = %+v", got)
	}
	if got.Point == nil || got.Point.Source != geo.SourceAlias {
		t.Fatalf("point = %+v", got.Point)
	}

	var state stateResponse
	if code := do(t, app, http.MethodGet, "/api/v1/state", "", &state); code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if state.Loading {
		t.Fatal("loading indicator left on")
	}
	if state.View.Zoom != 12 || len(state.Markers) != 1 || state.Markers[0].Layer != session.LayerSearch {
		t.Fatalf("state = %+v", state)
	}
	if state.Current == nil || state.Current.Point.Label != "تهران، ایران" {
		t.Fatalf("current = %+v", state.Current)
	}
}

func TestSearchValidation(t *testing.T) {
	app := newTestApp(t, providers.NewSyntheticProvider(1))

	var got actionResponse
	if code := do(t, app, http.MethodPost, "/api/v1/search", `{"query":"   "}`, &got); code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, code)
	}
	if got.OK || got.Message != "Please enter a location to search" {
		t.Fatalf("response = %+v", got)
	}

	if code := do(t, app, http.MethodPost, "/api/v1/search", `{"query":`, nil); code != http.StatusBadRequest {
		t.Fatalf("malformed body: expected status %d, got %d", http.StatusBadRequest, code)
	}
}

func TestSearchProviderErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider weather.Provider
		wantCode int
		wantMsg  string
	}{
		{
			name:     "missing key",
			provider: providers.NewOpenWeatherProvider(http.DefaultClient, "", providers.DefaultOpenWeatherURL, time.Second),
			wantCode: http.StatusInternalServerError,
			wantMsg:  "OpenWeatherMap API key is not configured",
		},
		{
			name:     "provider down",
			provider: downProvider{},
			wantCode: http.StatusBadGateway,
			wantMsg:  "Error getting weather data. Please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, tt.provider)

			var got actionResponse
			if code := do(t, app, http.MethodPost, "/api/v1/search", `{"query":"shiraz"}`, &got); code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, code)
			}
			if got.OK || got.Message != tt.wantMsg || got.Display != nil {
				t.Fatalf("response = %+v", got)
			}

			var state stateResponse
			do(t, app, http.MethodGet, "/api/v1/state", "", &state)
			if state.Message != tt.wantMsg || state.Current != nil || state.Loading {
				t.Fatalf("state = %+v", state)
			}
		})
	}
}

func TestClick(t *testing.T) {
	app := newTestApp(t, providers.NewSyntheticProvider(1))

	var got actionResponse
	if code := do(t, app, http.MethodPost, "/api/v1/click", `{"lat":35.7,"lon":51.4}`, &got); code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if got.Display == nil || got.Display.LocationName != "Location (35.7000, 51.4000)" {
		t.Fatalf("response = %+v", got)
	}

	x, y := geo.FromLonLat(51.4, 35.7)
	body, _ := json.Marshal(map[string]float64{"x": x, "y": y})
	if code := do(t, app, http.MethodPost, "/api/v1/click", string(body), &got); code != http.StatusOK {
		t.Fatalf("projected click: expected status %d, got %d", http.StatusOK, code)
	}
	if got.Point == nil || got.Point.Source != geo.SourceClick {
		t.Fatalf("point = %+v", got.Point)
	}
}

func TestClickValidation(t *testing.T) {
	app := newTestApp(t, providers.NewSyntheticProvider(1))

	for _, body := range []string{`{}`, `{"lat":95,"lon":0}`, `{"lat":10}`, `{"x":1}`} {
		if code := do(t, app, http.MethodPost, "/api/v1/click", body, nil); code != http.StatusBadRequest {
			t.Fatalf("click %s: expected status %d, got %d", body, http.StatusBadRequest, code)
		}
	}
}

func TestLocate(t *testing.T) {
	app := newTestApp(t, providers.NewSyntheticProvider(1))

	var got actionResponse
	if code := do(t, app, http.MethodPost, "/api/v1/locate", `{"lat":38.08,"lon":46.29,"accuracy":20}`, &got); code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if got.Display == nil || got.Display.LocationName != orchestrator.CurrentLocationLabel {
		t.Fatalf("response = %+v", got)
	}

	tests := []struct {
		body    string
		wantMsg string
	}{
		{body: `{"error":"permission_denied"}`, wantMsg: "Location permission denied. Please enable location services in your browser settings."},
		{body: `{"error":"3"}`, wantMsg: "Location request timed out. Please try again."},
		{body: `{"unsupported":true}`, wantMsg: "Geolocation is not supported by your browser"},
	}
	for _, tt := range tests {
		got = actionResponse{}
		if code := do(t, app, http.MethodPost, "/api/v1/locate", tt.body, &got); code != http.StatusUnprocessableEntity {
			t.Fatalf("locate %s: expected status %d, got %d", tt.body, http.StatusUnprocessableEntity, code)
		}
		if got.Message != tt.wantMsg {
			t.Fatalf("locate %s: message = %q, want %q", tt.body, got.Message, tt.wantMsg)
		}
	}
}

func TestViewAndConfig(t *testing.T) {
	app := newTestApp(t, providers.NewSyntheticProvider(1))

	var state stateResponse
	if code := do(t, app, http.MethodPost, "/api/v1/view", `{"lat":32.65,"lon":51.67,"zoom":7}`, &state); code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if state.View.Zoom != 7 || state.View.Lat != 32.65 || state.View.AnimationMs != 0 {
		t.Fatalf("view = %+v", state.View)
	}

	if code := do(t, app, http.MethodPost, "/api/v1/view", `{"lat":100,"lon":0,"zoom":7}`, nil); code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, code)
	}

	var cfg ClientConfig
	if code := do(t, app, http.MethodGet, "/api/v1/config", "", &cfg); code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if cfg.Zoom != 10 || cfg.MaxZoom != 19 || cfg.AnimationMs != 1000 || cfg.Center.Lat != 35.6892 {
		t.Fatalf("config = %+v", cfg)
	}

	var status Status
	do(t, app, http.MethodGet, "/api/v1/status", "", &status)
	if status.WeatherProvider != "synthetic" || status.FailurePolicy != "fail" {
		t.Fatalf("status = %+v", status)
	}
}
