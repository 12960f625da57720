// Package logging builds the zerolog loggers used by kygeo's binaries.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options selects logger output.
type Options struct {
	Level  string    // zerolog level name; unknown names fall back to info
	Format string    // "json" (default) or "console"
	Writer io.Writer // default os.Stderr
}

// New returns a logger writing to opts.Writer. Detection output goes to
// stdout, so logs default to stderr.
func New(opts Options) zerolog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	if strings.EqualFold(opts.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(w).With().Timestamp().Logger()

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || opts.Level == "" {
		if opts.Level != "" {
			logger.Warn().Str("level", opts.Level).Msg("unknown log level, using info")
		}
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// Nop returns a logger that discards everything, for tests and library use.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
