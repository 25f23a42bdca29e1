package location

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/i474232898/weathermap/internal/geo"
)

// Labeler names raw coordinates from a map click or the device.
type Labeler struct {
	geocoder Geocoder
}

func NewLabeler(geocoder Geocoder) *Labeler {
	return &Labeler{geocoder: geocoder}
}

// Label returns the reverse geocoded name of lat/lon, or the formatted
// coordinates when the lookup fails for any reason.
func (l *Labeler) Label(ctx context.Context, lat, lon float64) string {
	fallback := geo.FormatCoordinates(lat, lon)
	if l.geocoder == nil {
		return fallback
	}

	name, err := l.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		log.Debug().Err(err).Str("geocoder", l.geocoder.Name()).Msg("Reverse geocoding failed")
		return fallback
	}
	if name = strings.TrimSpace(name); name == "" {
		return fallback
	}
	return name
}
