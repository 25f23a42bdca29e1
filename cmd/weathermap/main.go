package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"

	httpapi "github.com/i474232898/weathermap/internal/api/http"
	"github.com/i474232898/weathermap/internal/apperror"
	"github.com/i474232898/weathermap/internal/config"
	"github.com/i474232898/weathermap/internal/display"
	"github.com/i474232898/weathermap/internal/geo"
	"github.com/i474232898/weathermap/internal/geolocation"
	"github.com/i474232898/weathermap/internal/location"
	geoproviders "github.com/i474232898/weathermap/internal/location/providers"
	"github.com/i474232898/weathermap/internal/orchestrator"
	"github.com/i474232898/weathermap/internal/scheduler"
	"github.com/i474232898/weathermap/internal/session"
	"github.com/i474232898/weathermap/internal/store"
	"github.com/i474232898/weathermap/internal/weather"
	"github.com/i474232898/weathermap/internal/weather/providers"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, flagsErr.Message)
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Setup Logging
	cfg.Logger.Setup()

	// Shared HTTP client for outbound provider calls. Per-call deadlines are
	// set by the upstream client.
	httpClient := &http.Client{
		Timeout: cfg.Server.RequestTimeout,
	}

	aliases, err := loadAliases(cfg.Geocoding.AliasFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load alias table")
	}

	geocoder := newGeocoder(cfg, httpClient)
	fetcher, err := newFetcher(cfg, httpClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build weather fetcher")
	}

	resolver := location.NewResolver(aliases, geocoder,
		location.WithFallback(cfg.Geocoding.FallbackLat, cfg.Geocoding.FallbackLon),
		location.WithAliasDelay(cfg.Geocoding.AliasDelay),
	)

	center := geo.Point{Lat: cfg.Map.CenterLat, Lon: cfg.Map.CenterLon}
	sess := session.New(session.Options{
		Center:    center,
		Zoom:      cfg.Map.Zoom,
		MinZoom:   cfg.Map.MinZoom,
		MaxZoom:   cfg.Map.MaxZoom,
		Animation: cfg.Map.Animation,
	})
	displayStore := store.NewDisplayStore()

	geoOpts := geolocation.Options{
		HighAccuracy: !cfg.Locate.LowAccuracy,
		Timeout:      cfg.Locate.Timeout,
		MaxAge:       cfg.Locate.MaxAge,
	}
	orch := orchestrator.New(resolver, location.NewLabeler(geocoder), fetcher, display.NewMapper(nil),
		sess, displayStore, orchestrator.Options{
			SearchZoom:  cfg.Map.SearchZoom,
			ClickZoom:   cfg.Map.ClickZoom,
			LocateZoom:  cfg.Map.LocateZoom,
			Geolocation: geoOpts,
		})

	// Scheduler that keeps the displayed weather fresh.
	sched := scheduler.New(cfg.Server.RefreshInterval, orch, 2*cfg.Server.RequestTimeout)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weathermap",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          3 * cfg.Server.RequestTimeout,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weathermap",
		})
	})

	policy, _ := cfg.Policy()
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Actions: orch,
		Map:     sess,
		Display: displayStore,
		Status: httpapi.Status{
			GeocodingProvider:   geocoder.Name(),
			GeocodingConfigured: !apperror.IsPlaceholderKey(cfg.Geocoding.APIKey),
			WeatherProvider:     fetcher.ProviderName(),
			WeatherConfigured:   weatherConfigured(cfg),
			FailurePolicy:       string(policy),
		},
		Client: httpapi.ClientConfig{
			Center:      center,
			Zoom:        cfg.Map.Zoom,
			MinZoom:     cfg.Map.MinZoom,
			MaxZoom:     cfg.Map.MaxZoom,
			SearchZoom:  cfg.Map.SearchZoom,
			ClickZoom:   cfg.Map.ClickZoom,
			LocateZoom:  cfg.Map.LocateZoom,
			AnimationMs: cfg.Map.Animation.Milliseconds(),
			Geolocation: httpapi.GeolocationConfig{
				EnableHighAccuracy: geoOpts.HighAccuracy,
				TimeoutMs:          geoOpts.Timeout.Milliseconds(),
				MaximumAgeMs:       geoOpts.MaxAge.Milliseconds(),
			},
		},
	})

	// Start server with graceful shutdown
	listenAddr := cfg.ListenAddr()
	go func() {
		if err := app.Listen(listenAddr); err != nil {
			log.Error().Err(err).Msg("Fiber server stopped")
		}
	}()
	log.Info().
		Str("addr", listenAddr).
		Str("geocoder", geocoder.Name()).
		Str("weather", fetcher.ProviderName()).
		Str("policy", string(policy)).
		Int("aliases", aliases.Len()).
		Msg("Web server started")

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}
}

func loadAliases(path string) (*location.AliasTable, error) {
	if path == "" {
		return location.NewAliasTable(location.DefaultAliases)
	}
	return location.LoadAliasFile(path)
}

func newGeocoder(cfg *config.AppConfig, client *http.Client) location.Geocoder {
	switch cfg.Geocoding.Provider {
	case config.GeocoderGoogle:
		return geoproviders.NewGoogle(cfg.Geocoding.APIKey, cfg.Server.RequestTimeout)
	default:
		return geoproviders.NewLocationIQ(client, cfg.Geocoding.APIKey, cfg.Geocoding.Endpoint, cfg.Server.RequestTimeout)
	}
}

func newFetcher(cfg *config.AppConfig, client *http.Client) (*weather.Fetcher, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	seed := cfg.Weather.SyntheticSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var provider weather.Provider
	switch cfg.Weather.Provider {
	case config.WeatherSynthetic:
		provider = providers.NewSyntheticProvider(seed)
	case config.WeatherOpenMeteo:
		provider = providers.NewOpenMeteoProvider(client, cfg.Weather.Endpoint, cfg.Server.RequestTimeout)
	case config.WeatherAPI:
		provider = providers.NewWeatherAPIProvider(client, cfg.Weather.APIKey, cfg.Weather.Endpoint, cfg.Server.RequestTimeout)
	default:
		provider = providers.NewOpenWeatherProvider(client, cfg.Weather.APIKey, cfg.Weather.Endpoint, cfg.Server.RequestTimeout)
	}

	var fallback weather.Provider
	if policy == weather.PolicySynthetic {
		fallback = providers.NewSyntheticProvider(seed + 1)
	}
	return weather.NewFetcher(provider, fallback, policy)
}

func weatherConfigured(cfg *config.AppConfig) bool {
	switch cfg.Weather.Provider {
	case config.WeatherSynthetic, config.WeatherOpenMeteo:
		return true
	default:
		return !apperror.IsPlaceholderKey(cfg.Weather.APIKey)
	}
}
