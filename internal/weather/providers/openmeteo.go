package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/weathermap/internal/apperror"
	"github.com/i474232898/weathermap/internal/upstream"
	"github.com/i474232898/weathermap/internal/weather"
)

// DefaultOpenMeteoURL is the forecast endpoint; it serves current conditions
// without an API key.
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

const openMeteoCurrent = "temperature_2m,apparent_temperature,relative_humidity_2m,pressure_msl," +
	"wind_speed_10m,cloud_cover,visibility,weather_code,is_day"

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
type OpenMeteoProvider struct {
	baseURL string
	client  *upstream.Client
}

func NewOpenMeteoProvider(client *http.Client, baseURL string, timeout time.Duration) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteoProvider{
		baseURL: baseURL,
		client:  upstream.New("openmeteo", client, timeout),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.client.Name()
}

// Fetch asks Open-Meteo for current conditions with wind in m/s.
func (p *OpenMeteoProvider) Fetch(ctx context.Context, lat, lon float64) (weather.Reading, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
		values.Set("current", openMeteoCurrent)
		values.Set("wind_speed_unit", "ms")
		values.Set("timeformat", "unixtime")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	var payload struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Current   *struct {
			Time        int64    `json:"time"`
			Temperature float64  `json:"temperature_2m"`
			Apparent    float64  `json:"apparent_temperature"`
			Humidity    float64  `json:"relative_humidity_2m"`
			Pressure    float64  `json:"pressure_msl"`
			WindSpeed   float64  `json:"wind_speed_10m"`
			CloudCover  float64  `json:"cloud_cover"`
			Visibility  *float64 `json:"visibility"`
			WeatherCode int      `json:"weather_code"`
			IsDay       int      `json:"is_day"`
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
	if cur.Time > 0 {
		ts = time.Unix(cur.Time, 0).UTC()
	}

	condition, icon := mapOpenMeteoCondition(cur.WeatherCode)
	r := weather.Reading{
		Provider:    p.Name(),
		ObservedAt:  ts,
		Lat:         lat,
		Lon:         lon,
		Temperature: cur.Temperature,
		FeelsLike:   cur.Apparent,
		Humidity:    cur.Humidity,
		Pressure:    cur.Pressure,
		WindSpeed:   roundTo(cur.WindSpeed, 1),
		Cloudiness:  cur.CloudCover,
		Condition:   condition,
		IconCode:    icon + daySuffix(cur.IsDay != 0),
	}
	if payload.Latitude != nil && payload.Longitude != nil {
		r.Lat = *payload.Latitude
		r.Lon = *payload.Longitude
	}
	if cur.Visibility != nil {
		km := roundTo(*cur.Visibility/1000, 1)
		r.VisibilityKm = &km
	}

	return r, nil
}

// mapOpenMeteoCondition maps a WMO weather code to a description and the
// OpenWeatherMap icon family without its day/night suffix.
func mapOpenMeteoCondition(code int) (string, string) {
	switch {
	case code == 0:
		return "clear sky", "01"
	case code == 1:
		return "mainly clear", "02"
	case code == 2:
		return "partly cloudy", "03"
	case code == 3:
		return "overcast clouds", "04"
	case code == 45 || code == 48:
		return "fog", "50"
	case code >= 51 && code <= 57:
		return "drizzle", "09"
	case code >= 61 && code <= 67:
		return "rain", "10"
	case code >= 71 && code <= 77:
		return "snow", "13"
	case code >= 80 && code <= 82:
		return "rain showers", "09"
	case code == 85 || code == 86:
		return "snow showers", "13"
	case code >= 95:
		return "thunderstorm", "11"
	default:
		return "Unknown", "01"
	}
}

func daySuffix(day bool) string {
	if day {
		return "d"
	}
	return "n"
}
