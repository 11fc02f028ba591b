package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/km-arc/go-sofaboot/framework/config"
)

// Setup builds a human readable logger writing to w at level. Unknown
// levels fall back to info. The result also becomes the global logger.
func Setup(level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
	}
	return install(zerolog.New(console), level)
}

// SetupJSON is Setup with one JSON object per line.
func SetupJSON(level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return install(zerolog.New(w), level)
}

// FromConfig picks Setup or SetupJSON from cfg.Format.
func FromConfig(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	if strings.EqualFold(cfg.Format, "json") {
		return SetupJSON(cfg.Level, w)
	}
	return Setup(cfg.Level, w)
}

func install(base zerolog.Logger, level string) zerolog.Logger {
	lvl, err := ParseLevel(level)
	logger := base.Level(lvl).With().Timestamp().Logger()
	if lvl <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	log.Logger = logger

	if err != nil {
		logger.Warn().Err(err).Msg("Unknown log level, using info")
	}
	return logger
}

// ParseLevel parses a level name. An empty name means info.
func ParseLevel(level string) (zerolog.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel, fmt.Errorf("logging: unknown level %q", level)
	}
	return lvl, nil
}

// VerbosityLevel maps a -v count onto a level name. Zero keeps fallback.
func VerbosityLevel(verbosity int, fallback string) string {
	switch {
	case verbosity <= 0:
		return fallback
	case verbosity == 1:
		return "info"
	case verbosity == 2:
		return "debug"
	default:
		return "trace"
	}
}

// Component returns logger with a component field.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
