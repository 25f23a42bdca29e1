package location

import "context"

// Candidate is one forward geocoding result.
type Candidate struct {
	Lat         float64
	Lon         float64
	DisplayName string
	Importance  float64
}

// Geocoder is a remote forward and reverse geocoding service.
// Search returns candidates in the provider's own relevance order; an empty
// list is reported as an error by implementations.
type Geocoder interface {
	Name() string
	Search(ctx context.Context, query string) ([]Candidate, error)
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}
