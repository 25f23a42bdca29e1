// Package providers contains the remote geocoding backends.
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
	"github.com/i474232898/weathermap/internal/location"
	"github.com/i474232898/weathermap/internal/upstream"
)

// DefaultLocationIQURL is the LocationIQ API base.
const DefaultLocationIQURL = "https://us1.locationiq.com/v1"

// LocationIQ implements location.Geocoder over the LocationIQ REST API.
type LocationIQ struct {
	apiKey  string
	baseURL string
	client  *upstream.Client
}

func NewLocationIQ(client *http.Client, apiKey, baseURL string, timeout time.Duration) *LocationIQ {
	if baseURL == "" {
		baseURL = DefaultLocationIQURL
	}
	return &LocationIQ{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  upstream.New("locationiq", client, timeout),
	}
}

func (g *LocationIQ) Name() string {
	return g.client.Name()
}

type locationIQPlace struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

// Search returns at most one candidate; LocationIQ ranks by relevance.
func (g *LocationIQ) Search(ctx context.Context, query string) ([]location.Candidate, error) {
	if err := apperror.CheckKey("LocationIQ", g.apiKey); err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("key", g.apiKey)
	values.Set("q", query)
	values.Set("format", "json")
	values.Set("limit", "1")

	var places []locationIQPlace
	if err := g.client.GetJSON(ctx, g.request("search", values), &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, &apperror.ProviderError{Provider: g.Name(), Message: "location not found"}
	}

	out := make([]location.Candidate, 0, len(places))
	for _, p := range places {
		lat, latErr := strconv.ParseFloat(p.Lat, 64)
		lon, lonErr := strconv.ParseFloat(p.Lon, 64)
		if latErr != nil || lonErr != nil {
			return nil, &apperror.ProviderError{
				Provider: g.Name(),
				Message:  fmt.Sprintf("malformed coordinates %q,%q", p.Lat, p.Lon),
			}
		}
		out = append(out, location.Candidate{
			Lat:         lat,
			Lon:         lon,
			DisplayName: p.DisplayName,
			Importance:  p.Importance,
		})
	}
	return out, nil
}

// Reverse returns the display name for lat/lon.
func (g *LocationIQ) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	if err := apperror.CheckKey("LocationIQ", g.apiKey); err != nil {
		return "", err
	}

	values := url.Values{}
	values.Set("key", g.apiKey)
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("format", "json")

	var place locationIQPlace
	if err := g.client.GetJSON(ctx, g.request("reverse", values), &place); err != nil {
		return "", err
	}
	return place.DisplayName, nil
}

func (g *LocationIQ) request(path string, values url.Values) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s/%s?%s", g.baseURL, path, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}
}
