package weather

import (
	"context"
)

// Provider abstracts a source of current weather keyed by coordinates.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, lat, lon float64) (Reading, error)
}
