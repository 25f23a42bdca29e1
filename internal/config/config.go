package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/weathermap/internal/logger"
	"github.com/i474232898/weathermap/internal/weather"
)

// Geocoding backends.
const (
	GeocoderLocationIQ = "locationiq"
	GeocoderGoogle     = "google"
)

// Weather backends.
const (
	WeatherOpenWeatherMap = "openweathermap"
	WeatherAPI            = "weatherapi"
	WeatherOpenMeteo      = "openmeteo"
	WeatherSynthetic      = "synthetic"
)

// AppConfig is the full application configuration. Every option can be set
// by flag or environment variable.
type AppConfig struct {
	Logger logger.Logger `group:"Logger options"`

	Server    Server    `group:"Server options"`
	Geocoding Geocoding `group:"Geocoding options"`
	Weather   Weather   `group:"Weather options"`
	Map       Map       `group:"Map options"`
	Locate    Locate    `group:"Geolocation options"`
}

type Server struct {
	Addr            string        `short:"a" long:"addr"             env:"LISTEN_ADDRESS"   description:"Address to listen on" default:"0.0.0.0"`
	Port            int           `short:"p" long:"port"             env:"PORT"             description:"Port to listen on" default:"8080" validate:"min=1,max=65535"`
	RequestTimeout  time.Duration `long:"request-timeout"            env:"REQUEST_TIMEOUT"  description:"Upper bound for a single provider call" default:"10s" validate:"gt=0"`
	RefreshInterval time.Duration `long:"refresh-interval"           env:"REFRESH_INTERVAL" description:"Re-fetch the displayed weather this often; 0 disables" default:"0s" validate:"gte=0"`
}

type Geocoding struct {
	Provider   string        `long:"geocoding-provider" env:"GEOCODING_PROVIDER" description:"Geocoding backend" choice:"locationiq" choice:"google" default:"locationiq"`
	APIKey     string        `long:"geocoding-api-key"  env:"GEOCODING_API_KEY"  description:"Geocoding API key"`
	Endpoint   string        `long:"geocoding-endpoint" env:"GEOCODING_ENDPOINT" description:"LocationIQ base URL" default:"https://us1.locationiq.com/v1" validate:"url"`
	AliasFile  string        `long:"alias-file"         env:"ALIAS_FILE"         description:"YAML file replacing the built-in city alias table"`
	AliasDelay time.Duration `long:"alias-delay"        env:"ALIAS_DELAY"        description:"Artificial delay for alias table hits" default:"0s" validate:"gte=0"`
	// FallbackLat/FallbackLon is returned when a search cannot be resolved.
	FallbackLat float64 `long:"fallback-lat" env:"FALLBACK_LAT" description:"Latitude of the fallback point" default:"35.6892" validate:"gte=-90,lte=90"`
	FallbackLon float64 `long:"fallback-lon" env:"FALLBACK_LON" description:"Longitude of the fallback point" default:"51.3890" validate:"gte=-180,lte=180"`
}

type Weather struct {
	Provider      string `long:"weather-provider"       env:"WEATHER_PROVIDER"       description:"Weather backend" choice:"openweathermap" choice:"weatherapi" choice:"openmeteo" choice:"synthetic" default:"openweathermap"`
	APIKey        string `long:"weather-api-key"        env:"WEATHER_API_KEY"        description:"API key of the weather backend"`
	Endpoint      string `long:"weather-endpoint"       env:"WEATHER_ENDPOINT"       description:"Override the weather backend URL" validate:"omitempty,url"`
	FailurePolicy string `long:"weather-failure-policy" env:"WEATHER_FAILURE_POLICY" description:"What to show when the provider fails" choice:"fail" choice:"synthetic" default:"fail"`
	SyntheticSeed int64  `long:"synthetic-seed"         env:"SYNTHETIC_SEED"         description:"Seed for synthetic weather; 0 uses the clock"`
}

type Map struct {
	CenterLat  float64       `long:"center-lat"   env:"MAP_CENTER_LAT"   description:"Initial map center latitude" default:"35.6892" validate:"gte=-90,lte=90"`
	CenterLon  float64       `long:"center-lon"   env:"MAP_CENTER_LON"   description:"Initial map center longitude" default:"51.3890" validate:"gte=-180,lte=180"`
	Zoom       int           `long:"zoom"         env:"MAP_ZOOM"         description:"Initial zoom" default:"10" validate:"gtefield=MinZoom,ltefield=MaxZoom"`
	MinZoom    int           `long:"min-zoom"     env:"MAP_MIN_ZOOM"     description:"Minimum zoom" default:"2" validate:"gte=0"`
	MaxZoom    int           `long:"max-zoom"     env:"MAP_MAX_ZOOM"     description:"Maximum zoom" default:"19" validate:"gtefield=MinZoom,lte=22"`
	SearchZoom int           `long:"search-zoom"  env:"MAP_SEARCH_ZOOM"  description:"Zoom after a search" default:"12" validate:"gtefield=MinZoom,ltefield=MaxZoom"`
	ClickZoom  int           `long:"click-zoom"   env:"MAP_CLICK_ZOOM"   description:"Zoom after a click; 0 keeps the view" default:"0" validate:"omitempty,gtefield=MinZoom,ltefield=MaxZoom"`
	LocateZoom int           `long:"locate-zoom"  env:"MAP_LOCATE_ZOOM"  description:"Zoom after locating the device" default:"14" validate:"gtefield=MinZoom,ltefield=MaxZoom"`
	Animation  time.Duration `long:"animation"    env:"MAP_ANIMATION"    description:"Recenter animation duration" default:"1s" validate:"gte=0"`
}

type Locate struct {
	Timeout     time.Duration `long:"geolocation-timeout"      env:"GEOLOCATION_TIMEOUT"      description:"Device position timeout" default:"10s" validate:"gt=0"`
	MaxAge      time.Duration `long:"geolocation-max-age"      env:"GEOLOCATION_MAX_AGE"      description:"Accept cached positions up to this age" default:"0s" validate:"gte=0"`
	LowAccuracy bool          `long:"geolocation-low-accuracy" env:"GEOLOCATION_LOW_ACCURACY" description:"Do not ask for a high accuracy fix"`
}

// Load reads .env, then flags from args and the environment, and validates
// the result. A help request is returned as *flags.Error of type ErrHelp.
func Load(args []string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	cfg := &AppConfig{}
	parser := flags.NewParser(cfg, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := cfg.Policy(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Policy is the parsed weather failure policy.
func (c *AppConfig) Policy() (weather.FailurePolicy, error) {
	return weather.ParseFailurePolicy(c.Weather.FailurePolicy)
}

// ListenAddr is host:port for the HTTP server.
func (c *AppConfig) ListenAddr() string {
	return net.JoinHostPort(c.Server.Addr, strconv.Itoa(c.Server.Port))
}
