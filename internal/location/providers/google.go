package providers

import (
	"context"
	"sync"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weathermap/internal/apperror"
	"github.com/i474232898/weathermap/internal/location"
	"github.com/i474232898/weathermap/internal/upstream"
)

// The geocoder package reads its key from a package variable.
var googleKeyMu sync.Mutex

// Google implements location.Geocoder with the Google Maps Geocoding API via
// github.com/kelvins/geocoder.
type Google struct {
	apiKey string
	client *upstream.Client
}

func NewGoogle(apiKey string, timeout time.Duration) *Google {
	return &Google{
		apiKey: apiKey,
		client: upstream.New("google", nil, timeout),
	}
}

func (g *Google) Name() string {
	return g.client.Name()
}

// Search geocodes the free text query. The API returns only coordinates, so
// the query doubles as the display name.
func (g *Google) Search(ctx context.Context, query string) ([]location.Candidate, error) {
	if err := apperror.CheckKey("Google Maps", g.apiKey); err != nil {
		return nil, err
	}

	var loc geocoder.Location
	err := g.client.Call(ctx, func(ctx context.Context) error {
		var err error
		loc, err = withContext(ctx, func() (geocoder.Location, error) {
			googleKeyMu.Lock()
			defer googleKeyMu.Unlock()
			geocoder.ApiKey = g.apiKey
			return geocoder.Geocoding(geocoder.Address{City: query})
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return []location.Candidate{{
		Lat:         loc.Latitude,
		Lon:         loc.Longitude,
		DisplayName: query,
	}}, nil
}

// Reverse returns the formatted address of the best match.
func (g *Google) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	if err := apperror.CheckKey("Google Maps", g.apiKey); err != nil {
		return "", err
	}

	var addresses []geocoder.Address
	err := g.client.Call(ctx, func(ctx context.Context) error {
		var err error
		addresses, err = withContext(ctx, func() ([]geocoder.Address, error) {
			googleKeyMu.Lock()
			defer googleKeyMu.Unlock()
			geocoder.ApiKey = g.apiKey
			return geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
		})
		return err
	})
	if err != nil {
		return "", err
	}
	if len(addresses) == 0 {
		return "", &apperror.ProviderError{Provider: g.Name(), Message: "no address for coordinates"}
	}
	return addresses[0].FormatAddress(), nil
}

// withContext lets a blocking SDK call be abandoned when ctx ends. The call
// itself keeps running until the SDK returns.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}
