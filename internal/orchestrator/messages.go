package orchestrator

import (
	"errors"
	"net/http"

	"github.com/i474232898/weathermap/internal/apperror"
)

const (
	msgEmptySearch      = "Please enter a location to search"
	msgInvalidCoords    = "The selected point is outside the map bounds."
	msgNoGeolocation    = "Geolocation is not supported by your browser"
	msgUnexpected       = "An unexpected error occurred. Please try again."
	msgWeatherGeneric   = "Error getting weather data. Please try again later."
	msgWeatherBadKey    = "Error: Invalid weather API key. Please check your API key."
	msgWeatherNotFound  = "Error: Weather data not found for this location."
	msgWeatherRateLimit = "Error: Too many requests. Please wait a moment and try again."
)

var geolocationMessages = map[apperror.GeolocationReason]string{
	apperror.ReasonPermissionDenied:    "Location permission denied. Please enable location services in your browser settings.",
	apperror.ReasonPositionUnavailable: "Location information is unavailable. Please check your device's location settings.",
	apperror.ReasonTimeout:             "Location request timed out. Please try again.",
}

// UserMessage is the single line shown to the user for err. Provider status
// codes select the wording; provider detail stays in the log.
func UserMessage(err error) string {
	var (
		ve *apperror.ValidationError
		ce *apperror.ConfigurationError
		ge *apperror.GeolocationError
		pe *apperror.ProviderError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &ce):
		return ce.Error()
	case errors.As(err, &ge):
		if msg, ok := geolocationMessages[ge.Reason]; ok {
			return msg
		}
		if ge.Message != "" {
			return "Error getting location: " + ge.Message
		}
		return "Error getting location."
	case errors.As(err, &pe):
		switch pe.StatusCode {
		case http.StatusUnauthorized:
			return msgWeatherBadKey
		case http.StatusNotFound:
			return msgWeatherNotFound
		case http.StatusTooManyRequests:
			return msgWeatherRateLimit
		default:
			return msgWeatherGeneric
		}
	default:
		return msgUnexpected
	}
}
