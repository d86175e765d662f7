package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "blog-api"

// New creates a new zerolog logger with structured output
func New() zerolog.Logger {
	return NewWithLevel(os.Getenv("LOG_LEVEL"), os.Getenv("ENV") == "development")
}

// NewWithLevel creates a logger for the given level name; pretty selects console output
func NewWithLevel(level string, pretty bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	logLevel := ParseLevel(level)

	// Use pretty console output in development
	if pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			Level(logLevel).
			With().
			Timestamp().
			Caller().
			Str("service", serviceName).
			Logger()
	}

	// JSON output for production
	return zerolog.New(os.Stdout).
		Level(logLevel).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
