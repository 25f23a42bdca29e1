// Package apperror defines the error taxonomy shared by providers and the
// orchestrator. Callers match on these with errors.As.
package apperror

import (
	"fmt"
	"strings"

	"github.com/i474232898/weathermap/internal/common"
)

// ConfigurationError reports a missing or placeholder API key. It is fatal to
// the action that triggered it and is shown to the user verbatim.
type ConfigurationError struct {
	Service string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s API key is not configured", e.Service)
}

// ProviderError is any failure talking to a third-party HTTP service:
// transport errors, non-2xx statuses, malformed payloads, empty results.
type ProviderError struct {
	Provider   string
	StatusCode int    // 0 when no response was received
	Message    string // provider supplied detail, if any
	Err        error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (%d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ValidationError is raised for user input rejected before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// GeolocationReason enumerates why a device position could not be obtained.
type GeolocationReason string

const (
	ReasonPermissionDenied    GeolocationReason = "permission_denied"
	ReasonPositionUnavailable GeolocationReason = "position_unavailable"
	ReasonTimeout             GeolocationReason = "timeout"
	ReasonOther               GeolocationReason = "other"
)

// ParseGeolocationReason maps a client supplied code to a reason. It takes
// either the reason name or the numeric GeolocationPositionError code.
// Unknown codes become ReasonOther.
func ParseGeolocationReason(s string) GeolocationReason {
	switch r := GeolocationReason(strings.ToLower(strings.TrimSpace(s))); r {
	case ReasonPermissionDenied, ReasonPositionUnavailable, ReasonTimeout:
		return r
	case "1":
		return ReasonPermissionDenied
	case "2":
		return ReasonPositionUnavailable
	case "3":
		return ReasonTimeout
	default:
		return ReasonOther
	}
}

// GeolocationError is a failed device position request.
type GeolocationError struct {
	Reason  GeolocationReason
	Message string
}

func (e *GeolocationError) Error() string {
	if e.Message == "" {
		return "geolocation: " + string(e.Reason)
	}
	return fmt.Sprintf("geolocation: %s: %s", e.Reason, e.Message)
}

var placeholderKeys = []string{"your_api_key", "your-api-key", "yourapikey", "changeme", "placeholder", "xxx"}

// IsPlaceholderKey reports whether an API key is empty or an obvious
// template value left in a config file.
func IsPlaceholderKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return true
	}
	if strings.HasPrefix(k, "<") && strings.HasSuffix(k, ">") {
		return true
	}
	return common.HasAny(k, placeholderKeys...)
}

// CheckKey returns a ConfigurationError for service when key is unusable.
func CheckKey(service, key string) error {
	if IsPlaceholderKey(key) {
		return &ConfigurationError{Service: service}
	}
	return nil
}
