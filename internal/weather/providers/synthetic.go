package providers

import (
	"context"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/i474232898/weathermap/internal/weather"
)

type syntheticCondition struct {
	text string
	icon string
}

var syntheticConditions = []syntheticCondition{
	{"clear sky", "01d"},
	{"few clouds", "02d"},
	{"scattered clouds", "03d"},
	{"light rain", "10d"},
	{"mist", "50d"},
}

// SyntheticProvider generates plausible random readings. It never fails.
type SyntheticProvider struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
	now   func() time.Time
}

// NewSyntheticProvider seeds the generator. Equal non-zero seeds give equal
// sequences; zero picks a random seed.
func NewSyntheticProvider(seed int64) *SyntheticProvider {
	return &SyntheticProvider{
		faker: gofakeit.New(uint64(seed)),
		now:   time.Now,
	}
}

func (p *SyntheticProvider) Name() string {
	return "synthetic"
}

func (p *SyntheticProvider) Fetch(ctx context.Context, lat, lon float64) (weather.Reading, error) {
	if err := ctx.Err(); err != nil {
		return weather.Reading{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	f := p.faker
	temp := f.Float64Range(5, 35)
	cond := syntheticConditions[f.IntRange(0, len(syntheticConditions)-1)]
	visibility := 10.0

	return weather.Reading{
		Provider:     p.Name(),
		Synthetic:    true,
		ObservedAt:   p.now().UTC(),
		Lat:          lat,
		Lon:          lon,
		Temperature:  roundTo(temp, 1),
		FeelsLike:    roundTo(temp+f.Float64Range(-3, 3), 1),
		Humidity:     float64(f.IntRange(20, 90)),
		Pressure:     float64(f.IntRange(995, 1030)),
		WindSpeed:    roundTo(f.Float64Range(0, 12), 1),
		VisibilityKm: &visibility,
		Cloudiness:   float64(f.IntRange(0, 100)),
		Condition:    cond.text,
		IconCode:     cond.icon,
	}, nil
}
