package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weathermap/internal/apperror"
	"github.com/i474232898/weathermap/internal/upstream"
	"github.com/i474232898/weathermap/internal/weather"
)

// DefaultWeatherAPIURL is the WeatherAPI.com current conditions endpoint.
const DefaultWeatherAPIURL = "https://api.weatherapi.com/v1/current.json"

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	apiKey  string
	baseURL string
	client  *upstream.Client
}

func NewWeatherAPIProvider(client *http.Client, apiKey, baseURL string, timeout time.Duration) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = DefaultWeatherAPIURL
	}
	return &WeatherAPIProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  upstream.New("weatherapi", client, timeout),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.client.Name()
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, lat, lon float64) (weather.Reading, error) {
	if err := apperror.CheckKey("WeatherAPI", p.apiKey); err != nil {
		return weather.Reading{}, err
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI uses "q" for location; it accepts "lat,lon".
		values.Set("q", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lon, 'f', -1, 64))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	var payload struct {
		Location struct {
			Name string  `json:"name"`
			Lat  float64 `json:"lat"`
			Lon  float64 `json:"lon"`
		} `json:"location"`
		Current *struct {
			LastUpdatedEpoch int64    `json:"last_updated_epoch"`
			TempC            float64  `json:"temp_c"`
			FeelsLikeC       float64  `json:"feelslike_c"`
			Humidity         float64  `json:"humidity"`
			WindKph          float64  `json:"wind_kph"`
			PressureMb       float64  `json:"pressure_mb"`
			VisKm            *float64 `json:"vis_km"`
			Cloud            float64  `json:"cloud"`
			IsDay            int      `json:"is_day"`
			Condition        struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}

	if err := p.client.GetJSON(ctx, buildRequest, &payload); err != nil {
		return weather.Reading{}, err
	}

	cur := payload.Current
	if cur == nil {
		return weather.Reading{}, &apperror.ProviderError{
			Provider: p.Name(),
			Message:  "malformed response body: missing current block",
		}
	}

	ts := time.Now().UTC()
	if cur.LastUpdatedEpoch > 0 {
		ts = time.Unix(cur.LastUpdatedEpoch, 0).UTC()
	}

	condition := strings.ToLower(strings.TrimSpace(cur.Condition.Text))
	if condition == "" {
		condition = "Unknown"
	}

	r := weather.Reading{
		Provider:    p.Name(),
		ObservedAt:  ts,
		Lat:         lat,
		Lon:         lon,
		Name:        payload.Location.Name,
		Temperature: cur.TempC,
		FeelsLike:   cur.FeelsLikeC,
		Humidity:    cur.Humidity,
		Pressure:    cur.PressureMb,
		// Convert wind from kph to m/s.
		WindSpeed:  roundTo(cur.WindKph/3.6, 1),
		Cloudiness: cur.Cloud,
		Condition:  condition,
		IconCode:   mapWeatherAPICondition(cur.Condition.Text) + daySuffix(cur.IsDay != 0),
	}
	if payload.Location.Lat != 0 || payload.Location.Lon != 0 {
		r.Lat = payload.Location.Lat
		r.Lon = payload.Location.Lon
	}
	if cur.VisKm != nil {
		km := roundTo(*cur.VisKm, 1)
		r.VisibilityKm = &km
	}

	return r, nil
}

// mapWeatherAPICondition picks the OpenWeatherMap icon family for a
// WeatherAPI condition text.
func mapWeatherAPICondition(text string) string {
	switch {
	case text == "":
		return "01"
	case contains(text, "thunder") || contains(text, "storm"):
		return "11"
	case contains(text, "snow") || contains(text, "sleet") || contains(text, "blizzard") || contains(text, "ice"):
		return "13"
	case contains(text, "shower") || contains(text, "drizzle"):
		return "09"
	case contains(text, "rain"):
		return "10"
	case contains(text, "mist") || contains(text, "fog"):
		return "50"
	case contains(text, "overcast"):
		return "04"
	case contains(text, "partly"):
		return "02"
	case contains(text, "cloud"):
		return "03"
	default:
		return "01"
	}
}

func contains(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
