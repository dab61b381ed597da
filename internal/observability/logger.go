// Package observability sets up structured logging for partforge.
package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the global zerolog logger for console output and
// returns it. Progress goes to stderr so stdout stays clean for --json
// output consumed by other tooling.
func InitLogger(verbose bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", "partforge").Logger()
	log.Logger = logger
	return logger
}

// Discard returns a logger that drops everything, for tests.
func Discard() zerolog.Logger {
	return zerolog.New(io.Discard)
}
