// Package logging configures the process zerolog logger. Everything below
// the command layer receives a zerolog.Logger explicitly; only main wires
// one up.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is a zerolog level name ("debug", "info", ...). Unknown names
	// fall back to info.
	Level string

	// Pretty switches from JSON lines to the human console writer.
	Pretty bool

	TimeFormat string
}

func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Pretty:     true,
		TimeFormat: time.RFC3339,
	}
}

// New builds a logger writing to stderr per cfg.
func New(cfg Config) zerolog.Logger {
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	var output io.Writer = os.Stderr
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: timeFormat,
		}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}
