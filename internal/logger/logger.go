// Package logger configures the global zerolog logger from command line
// options.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger holds logging options. Embed it in an options struct as a group.
type Logger struct {
	Level  string `long:"log-level"  env:"LOG_LEVEL"  description:"Log level" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	Format string `long:"log-format" env:"LOG_FORMAT" description:"Log format" choice:"console" choice:"json" default:"console"`
	Color  bool   `long:"log-color"  env:"LOG_COLOR"  description:"Colorize console output"`
}

// Setup applies the options to the global logger writing to stderr.
func (l Logger) Setup() {
	if err := l.SetupWriter(os.Stderr); err != nil {
		log.Warn().Err(err).Msg("Invalid logger options; using defaults")
	}
}

// SetupWriter applies the options to the global logger writing to w. On
// error the level falls back to info.
func (l Logger) SetupWriter(w io.Writer) error {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(l.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	switch strings.ToLower(l.Format) {
	case "json":
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	case "", "console":
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    !l.Color,
			TimeFormat: time.DateTime,
		}).With().Timestamp().Logger()
	default:
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return fmt.Errorf("unknown log format %q", l.Format)
	}

	if err != nil {
		return fmt.Errorf("log level %q: %w", l.Level, err)
	}
	return nil
}
