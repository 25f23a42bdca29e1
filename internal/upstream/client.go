// Package upstream performs outbound provider calls with a bounded timeout and
// a per-provider circuit breaker. Failed calls are not retried; the caller's
// fallback is the only recovery.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weathermap/internal/apperror"
)

const maxErrorBody = 64 << 10

var (
	// ErrCircuitOpen is wrapped into the ProviderError returned while the
	// breaker rejects calls.
	ErrCircuitOpen = errors.New("circuit breaker open")

	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errNoHTTPClient = errors.New("http client not configured")
)

// Client is a named upstream with its own breaker.
type Client struct {
	name    string
	http    *http.Client
	timeout time.Duration
	circuit *gobreaker.CircuitBreaker
}

// New builds a Client. A zero timeout leaves the deadline to the context.
func New(name string, client *http.Client, timeout time.Duration) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A caller that gave up says nothing about the provider.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return &Client{
		name:    name,
		http:    client,
		timeout: timeout,
		circuit: cb,
	}
}

// Name returns the provider name used in errors and logs.
func (c *Client) Name() string {
	return c.name
}

// GetJSON sends the request built by buildRequest and decodes a 2xx JSON body
// into out. Every failure comes back as *apperror.ProviderError.
func (c *Client) GetJSON(ctx context.Context, buildRequest func(ctx context.Context) (*http.Request, error), out any) error {
	if c.http == nil {
		return c.fail(0, "", errNoHTTPClient)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := buildRequest(ctx)
	if err != nil {
		return c.fail(0, "", err)
	}

	// Only transport errors, 429 and 5xx count against the breaker. A 4xx is
	// an answer about this request, not about provider health.
	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.http.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return resp, errRateLimited
		}
		if resp.StatusCode >= 500 {
			return resp, errServerError
		}
		return resp, nil
	})

	var resp *http.Response
	if r, ok := result.(*http.Response); ok {
		resp = r
	}
	if resp != nil {
		defer resp.Body.Close()
	}

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return c.fail(0, "", fmt.Errorf("%w: %v", ErrCircuitOpen, err))
		}
		if resp != nil {
			return c.fail(resp.StatusCode, errorMessage(resp.Body), err)
		}
		if ctx.Err() != nil {
			return c.fail(0, contextMessage(ctx.Err()), ctx.Err())
		}
		return c.fail(0, "", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fail(resp.StatusCode, errorMessage(resp.Body), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.fail(resp.StatusCode, "malformed response body", err)
	}
	return nil
}

// Call runs fn under the breaker and the client timeout. It is used for
// providers reached through an SDK rather than a raw request. Errors that are
// already a ProviderError or ConfigurationError pass through unchanged.
func (c *Client) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.circuit.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	if err == nil {
		return nil
	}

	var pe *apperror.ProviderError
	var ce *apperror.ConfigurationError
	switch {
	case errors.As(err, &pe), errors.As(err, &ce):
		return err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return c.fail(0, "", fmt.Errorf("%w: %v", ErrCircuitOpen, err))
	case ctx.Err() != nil:
		return c.fail(0, contextMessage(ctx.Err()), ctx.Err())
	default:
		return c.fail(0, "", err)
	}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func contextMessage(err error) string {
	if errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	return "request timed out"
}

func (c *Client) fail(status int, msg string, err error) error {
	return &apperror.ProviderError{
		Provider:   c.name,
		StatusCode: status,
		Message:    msg,
		Err:        err,
	}
}

// errorMessage pulls a human readable reason out of an error body. Providers
// use either {"message": ...} or {"error": ...}; anything else is returned
// trimmed as plain text.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}

	// Providers use {"message": ...}, {"error": "..."} or
	// {"error": {"message": ...}}.
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		var text string
		if json.Unmarshal(payload.Error, &text) == nil && text != "" {
			return text
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(payload.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return strings.TrimSpace(string(data))
}
