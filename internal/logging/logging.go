package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger on stderr. Extra writers receive the
// same entries as JSON lines.
func Init(verbose bool, extra ...io.Writer) {
	InitWriter(os.Stderr, verbose, extra...)
}

// InitWriter initializes the global logger with a console writer on out
func InitWriter(out io.Writer, verbose bool, extra ...io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
	}

	log.Logger = NewLogger(append([]io.Writer{output}, extra...)...)
}

// NewLogger creates a new logger with optional writers
func NewLogger(writers ...io.Writer) zerolog.Logger {
	if len(writers) == 0 {
		return log.Logger
	}

	if len(writers) == 1 {
		return zerolog.New(writers[0]).With().Timestamp().Logger()
	}

	multi := zerolog.MultiLevelWriter(writers...)
	return zerolog.New(multi).With().Timestamp().Logger()
}

// WithComponent creates a child of the global logger with a component field
func WithComponent(component string) zerolog.Logger {
	return Component(log.Logger, component)
}

// Component derives a child of logger with a component field
func Component(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}
