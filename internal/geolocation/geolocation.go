// Package geolocation models the device position request made by the
// browser on behalf of the user.
package geolocation

import (
	"context"
	"errors"
	"time"

	"github.com/i474232898/weathermap/internal/apperror"
	"github.com/i474232898/weathermap/internal/geo"
)

// Options mirror the browser PositionOptions.
type Options struct {
	HighAccuracy bool          `json:"enableHighAccuracy"`
	Timeout      time.Duration `json:"-"`
	MaxAge       time.Duration `json:"-"`
}

// DefaultOptions asks for a fresh, precise fix within ten seconds.
var DefaultOptions = Options{
	HighAccuracy: true,
	Timeout:      10 * time.Second,
	MaxAge:       0,
}

// Position is a device fix.
type Position struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Accuracy float64 `json:"accuracy,omitempty"` // meters
}

// Locator obtains the device position. Failures are *apperror.GeolocationError.
type Locator interface {
	CurrentPosition(ctx context.Context, opts Options) (Position, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context, opts Options) (Position, error)

func (f LocatorFunc) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	return f(ctx, opts)
}

// Reported is the outcome the browser already obtained and posted to us:
// either a position or a failure reason.
type Reported struct {
	Position *Position
	Reason   apperror.GeolocationReason
	Message  string
}

func (r Reported) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, FromContext(err)
	}
	if r.Reason != "" {
		return Position{}, &apperror.GeolocationError{Reason: r.Reason, Message: r.Message}
	}
	if r.Position == nil {
		return Position{}, &apperror.GeolocationError{Reason: apperror.ReasonPositionUnavailable, Message: "no position reported"}
	}
	if err := geo.ValidateCoordinates(r.Position.Lat, r.Position.Lon); err != nil {
		return Position{}, &apperror.GeolocationError{Reason: apperror.ReasonPositionUnavailable, Message: err.Error()}
	}
	return *r.Position, nil
}

// FromContext converts a context error into a GeolocationError.
func FromContext(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &apperror.GeolocationError{Reason: apperror.ReasonTimeout, Message: err.Error()}
	}
	return &apperror.GeolocationError{Reason: apperror.ReasonOther, Message: err.Error()}
}
