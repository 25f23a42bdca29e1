// Package location turns free text and raw coordinates into labeled points.
package location

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/i474232898/weathermap/internal/apperror"
	"github.com/i474232898/weathermap/internal/geo"
)

// DefaultFallback is returned when a query cannot be resolved at all.
var DefaultFallback = geo.Point{Lat: 35.6892, Lon: 51.3890}

// Resolver resolves search text in three steps: alias table, geocoder,
// fallback point.
type Resolver struct {
	aliases    *AliasTable
	geocoder   Geocoder
	fallback   geo.Point
	aliasDelay time.Duration
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithFallback overrides the point used when nothing else resolves.
func WithFallback(lat, lon float64) ResolverOption {
	return func(r *Resolver) {
		r.fallback.Lat = lat
		r.fallback.Lon = lon
	}
}

// WithAliasDelay makes alias hits wait d before returning, so the UI sees
// the same loading transition as for a remote lookup.
func WithAliasDelay(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.aliasDelay = d
	}
}

// NewResolver creates a Resolver. geocoder may be nil, in which case every
// alias miss falls back.
func NewResolver(aliases *AliasTable, geocoder Geocoder, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		aliases:  aliases,
		geocoder: geocoder,
		fallback: DefaultFallback,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns a usable point for query. Provider failures never escape:
// they produce the fallback point with Success=false. The only error is a
// ConfigurationError when an alias miss needs the geocoder and it has no key.
func (r *Resolver) Resolve(ctx context.Context, query string) (geo.Point, error) {
	query = strings.TrimSpace(query)

	if a, ok := r.aliases.Match(normalize(query)); ok {
		if err := r.wait(ctx); err != nil {
			return geo.Point{}, err
		}
		log.Debug().Str("query", query).Str("label", a.Label).Msg("Alias table hit")
		return geo.Point{
			Lat:     a.Lat,
			Lon:     a.Lon,
			Label:   a.Label,
			Success: true,
			Source:  geo.SourceAlias,
		}, nil
	}

	if r.geocoder == nil {
		return r.fallbackFor(query), nil
	}

	candidates, err := r.geocoder.Search(ctx, query)
	if err != nil {
		var cfgErr *apperror.ConfigurationError
		if errors.As(err, &cfgErr) {
			return geo.Point{}, err
		}
		log.Warn().Err(err).Str("geocoder", r.geocoder.Name()).Str("query", query).Msg("Geocoding failed; using fallback point")
		return r.fallbackFor(query), nil
	}
	if len(candidates) == 0 {
		log.Warn().Str("geocoder", r.geocoder.Name()).Str("query", query).Msg("Geocoder returned no candidates; using fallback point")
		return r.fallbackFor(query), nil
	}

	c := candidates[0]
	if err := geo.ValidateCoordinates(c.Lat, c.Lon); err != nil {
		log.Warn().Err(err).Str("geocoder", r.geocoder.Name()).Str("query", query).Msg("Geocoder returned invalid coordinates; using fallback point")
		return r.fallbackFor(query), nil
	}

	label := c.DisplayName
	if label == "" {
		label = query
	}
	return geo.Point{
		Lat:        c.Lat,
		Lon:        c.Lon,
		Label:      label,
		Success:    true,
		Confidence: c.Importance,
		Source:     geo.SourceGeocoder,
	}, nil
}

func (r *Resolver) fallbackFor(query string) geo.Point {
	p := r.fallback
	p.Label = query + " (approximate)"
	p.Success = false
	p.Source = geo.SourceFallback
	return p
}

func (r *Resolver) wait(ctx context.Context) error {
	if r.aliasDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(r.aliasDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
