package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/i474232898/weathermap/internal/apperror"
	"github.com/i474232898/weathermap/internal/geo"
)

// FailurePolicy decides what the Fetcher does when the provider fails.
type FailurePolicy string

const (
	// PolicyFail propagates provider errors to the caller.
	PolicyFail FailurePolicy = "fail"
	// PolicySynthetic substitutes a generated reading for provider errors.
	PolicySynthetic FailurePolicy = "synthetic"
)

// ParseFailurePolicy accepts "fail" or "synthetic".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyFail, PolicySynthetic:
		return p, nil
	default:
		return "", fmt.Errorf("unknown weather failure policy %q (allowed: fail, synthetic)", s)
	}
}

// Fetcher retrieves weather for a coordinate and applies one failure policy
// consistently for every call.
type Fetcher struct {
	provider Provider
	fallback Provider
	policy   FailurePolicy
}

// NewFetcher creates a Fetcher. fallback is only consulted under
// PolicySynthetic and may be nil otherwise.
func NewFetcher(provider, fallback Provider, policy FailurePolicy) (*Fetcher, error) {
	if provider == nil {
		return nil, errors.New("no weather provider configured")
	}
	if policy == PolicySynthetic && fallback == nil {
		return nil, errors.New("synthetic failure policy requires a fallback provider")
	}
	return &Fetcher{
		provider: provider,
		fallback: fallback,
		policy:   policy,
	}, nil
}

// Policy returns the configured failure policy.
func (f *Fetcher) Policy() FailurePolicy {
	return f.policy
}

// ProviderName returns the primary provider's name.
func (f *Fetcher) ProviderName() string {
	return f.provider.Name()
}

// Fetch returns the current reading at lat/lon. A ConfigurationError is
// always returned as is; a ProviderError is returned or replaced depending on
// the policy.
func (f *Fetcher) Fetch(ctx context.Context, lat, lon float64) (Reading, error) {
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		return Reading{}, &apperror.ValidationError{Message: err.Error()}
	}

	r, err := f.provider.Fetch(ctx, lat, lon)
	if err == nil {
		return r, nil
	}

	var cfgErr *apperror.ConfigurationError
	if errors.As(err, &cfgErr) || f.policy != PolicySynthetic {
		return Reading{}, err
	}

	log.Warn().
		Err(err).
		Str("provider", f.provider.Name()).
		Float64("lat", lat).
		Float64("lon", lon).
		Msg("Weather provider failed; substituting synthetic reading")

	return f.fallback.Fetch(ctx, lat, lon)
}
