package providers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/weathermap/internal/apperror"
	"github.com/i474232898/weathermap/internal/upstream"
	"github.com/i474232898/weathermap/internal/weather"
)

// DefaultOpenWeatherURL is the current-weather endpoint.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	apiKey  string
	baseURL string
	client  *upstream.Client
}

func NewOpenWeatherProvider(client *http.Client, apiKey, baseURL string, timeout time.Duration) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	return &OpenWeatherProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  upstream.New("openweathermap", client, timeout),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.client.Name()
}

// Fetch asks OpenWeatherMap for current conditions in metric units.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, lat, lon float64) (weather.Reading, error) {
	if err := apperror.CheckKey("OpenWeatherMap", p.apiKey); err != nil {
		return weather.Reading{}, err
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	var payload struct {
		Dt    int64 `json:"dt"`
		Coord *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
		Name string `json:"name"`
		Main *struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  float64 `json:"humidity"`
			Pressure  float64 `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Visibility *float64 `json:"visibility"`
		Clouds     *struct {
			All *float64 `json:"all"`
		} `json:"clouds"`
		Weather []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	}

	if err := p.client.GetJSON(ctx, buildRequest, &payload); err != nil {
		return weather.Reading{}, err
	}

	if payload.Main == nil {
		return weather.Reading{}, &apperror.ProviderError{
			Provider: p.Name(),
			Message:  "malformed response body: missing main block",
		}
	}

	ts := time.Now().UTC()
	if payload.Dt > 0 {
		ts = time.Unix(payload.Dt, 0).UTC()
	}

	r := weather.Reading{
		Provider:    p.Name(),
		ObservedAt:  ts,
		Lat:         lat,
		Lon:         lon,
		Name:        payload.Name,
		Temperature: payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		Humidity:    payload.Main.Humidity,
		Pressure:    payload.Main.Pressure,
		WindSpeed:   roundTo(payload.Wind.Speed, 1),
		Condition:   "Unknown",
		IconCode:    "01d",
	}
	if payload.Coord != nil {
		r.Lat = payload.Coord.Lat
		r.Lon = payload.Coord.Lon
	}
	if payload.Visibility != nil {
		km := roundTo(*payload.Visibility/1000, 1)
		r.VisibilityKm = &km
	}
	if payload.Clouds != nil && payload.Clouds.All != nil {
		r.Cloudiness = *payload.Clouds.All
	}
	if len(payload.Weather) > 0 {
		if d := payload.Weather[0].Description; d != "" {
			r.Condition = d
		}
		if ic := payload.Weather[0].Icon; ic != "" {
			r.IconCode = ic
		}
	}

	return r, nil
}

func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
