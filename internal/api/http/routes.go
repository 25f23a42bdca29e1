package httpapi

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weathermap/internal/apperror"
	"github.com/i474232898/weathermap/internal/display"
	"github.com/i474232898/weathermap/internal/geo"
	"github.com/i474232898/weathermap/internal/geolocation"
	"github.com/i474232898/weathermap/internal/orchestrator"
	"github.com/i474232898/weathermap/internal/session"
	"github.com/i474232898/weathermap/internal/store"
)

var validate = validator.New()

// Actions are the user interactions the API exposes.
type Actions interface {
	Search(ctx context.Context, query string) (orchestrator.Outcome, error)
	Click(ctx context.Context, lat, lon float64) (orchestrator.Outcome, error)
	ClickProjected(ctx context.Context, x, y float64) (orchestrator.Outcome, error)
	Locate(ctx context.Context, locator geolocation.Locator) (orchestrator.Outcome, error)
	ViewChanged(lat, lon float64, zoom int) error
}

// MapState exposes the map session for rendering.
type MapState interface {
	Snapshot() session.State
}

// DisplayState exposes the weather panel for rendering.
type DisplayState interface {
	Snapshot() store.Snapshot
}

// Status reports which providers are in use and whether they have keys.
type Status struct {
	GeocodingProvider   string `json:"geocodingProvider"`
	GeocodingConfigured bool   `json:"geocodingConfigured"`
	WeatherProvider     string `json:"weatherProvider"`
	WeatherConfigured   bool   `json:"weatherConfigured"`
	FailurePolicy       string `json:"failurePolicy"`
}

// ClientConfig is what the front-end needs to build its map widget.
type ClientConfig struct {
	Center      geo.Point         `json:"center"`
	Zoom        int               `json:"zoom"`
	MinZoom     int               `json:"minZoom"`
	MaxZoom     int               `json:"maxZoom"`
	SearchZoom  int               `json:"searchZoom"`
	ClickZoom   int               `json:"clickZoom"`
	LocateZoom  int               `json:"locateZoom"`
	AnimationMs int64             `json:"animationMs"`
	Geolocation GeolocationConfig `json:"geolocation"`
}

// GeolocationConfig mirrors the browser PositionOptions.
type GeolocationConfig struct {
	EnableHighAccuracy bool  `json:"enableHighAccuracy"`
	TimeoutMs          int64 `json:"timeout"`
	MaximumAgeMs       int64 `json:"maximumAge"`
}

// Deps are the collaborators of the API handlers.
type Deps struct {
	Actions Actions
	Map     MapState
	Display DisplayState
	Status  Status
	Client  ClientConfig
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(deps.Status)
	})

	v1.Get("/config", func(c *fiber.Ctx) error {
		return c.JSON(deps.Client)
	})

	v1.Get("/state", func(c *fiber.Ctx) error {
		return c.JSON(newStateResponse(deps.Map.Snapshot(), deps.Display.Snapshot()))
	})

	v1.Post("/search", func(c *fiber.Ctx) error {
		var req searchRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		out, err := deps.Actions.Search(c.UserContext(), req.Query)
		return respond(c, out, err)
	})

	v1.Post("/click", func(c *fiber.Ctx) error {
		var req clickRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		switch {
		case req.Lat != nil && req.Lon != nil:
			out, err := deps.Actions.Click(c.UserContext(), *req.Lat, *req.Lon)
			return respond(c, out, err)
		case req.X != nil && req.Y != nil:
			out, err := deps.Actions.ClickProjected(c.UserContext(), *req.X, *req.Y)
			return respond(c, out, err)
		default:
			return fiber.NewError(fiber.StatusBadRequest, "either lat and lon or x and y are required")
		}
	})

	v1.Post("/locate", func(c *fiber.Ctx) error {
		var req locateRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		out, err := deps.Actions.Locate(c.UserContext(), req.locator())
		return respond(c, out, err)
	})

	v1.Post("/view", func(c *fiber.Ctx) error {
		var req viewRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		if err := deps.Actions.ViewChanged(req.Lat, req.Lon, req.Zoom); err != nil {
			return fiber.NewError(statusFor(err), orchestrator.UserMessage(err))
		}
		return c.JSON(newStateResponse(deps.Map.Snapshot(), deps.Display.Snapshot()))
	})
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

type searchRequest struct {
	Query string `json:"query" validate:"max=256"`
}

type clickRequest struct {
	Lat *float64 `json:"lat" validate:"omitnil,gte=-90,lte=90"`
	Lon *float64 `json:"lon"`
	X   *float64 `json:"x"`
	Y   *float64 `json:"y"`
}

// locateRequest is the browser's geolocation result: a position or an error.
type locateRequest struct {
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Accuracy    float64  `json:"accuracy" validate:"gte=0"`
	Error       string   `json:"error"`
	Message     string   `json:"message" validate:"max=512"`
	Unsupported bool     `json:"unsupported"`
}

func (r locateRequest) locator() geolocation.Locator {
	switch {
	case r.Unsupported:
		return nil
	case r.Error != "":
		return geolocation.Reported{
			Reason:  apperror.ParseGeolocationReason(r.Error),
			Message: r.Message,
		}
	case r.Lat != nil && r.Lon != nil:
		return geolocation.Reported{
			Position: &geolocation.Position{Lat: *r.Lat, Lon: *r.Lon, Accuracy: r.Accuracy},
		}
	default:
		return geolocation.Reported{}
	}
}

type viewRequest struct {
	Lat  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `json:"lon"`
	Zoom int     `json:"zoom" validate:"gte=0,lte=22"`
}

type actionResponse struct {
	OK          bool           `json:"ok"`
	Message     string         `json:"message,omitempty"`
	Stale       bool           `json:"stale,omitempty"`
	Interaction string         `json:"interaction,omitempty"`
	Point       *geo.Point     `json:"point,omitempty"`
	Display     *display.Model `json:"display,omitempty"`
}

type stateResponse struct {
	View    session.View     `json:"view"`
	Markers []session.Marker `json:"markers"`
	Current *store.Current   `json:"current,omitempty"`
	Loading bool             `json:"loading"`
	Message string           `json:"message,omitempty"`
}

func newStateResponse(m session.State, d store.Snapshot) stateResponse {
	return stateResponse{
		View:    m.View,
		Markers: m.Markers,
		Current: d.Current,
		Loading: d.Loading,
		Message: d.Message,
	}
}

func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func respond(c *fiber.Ctx, out orchestrator.Outcome, err error) error {
	resp := actionResponse{
		OK:          err == nil,
		Message:     out.Message,
		Stale:       out.Stale,
		Interaction: out.ID,
		Point:       out.Point,
		Display:     out.Display,
	}
	if err != nil {
		return c.Status(statusFor(err)).JSON(resp)
	}
	return c.JSON(resp)
}

func statusFor(err error) int {
	var (
		ve *apperror.ValidationError
		ce *apperror.ConfigurationError
		ge *apperror.GeolocationError
		pe *apperror.ProviderError
	)
	switch {
	case errors.As(err, &ve):
		return fiber.StatusBadRequest
	case errors.As(err, &ce):
		return fiber.StatusInternalServerError
	case errors.As(err, &ge):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &pe):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
