package cliconfig

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Logger returns the CLI logger: console output to w at the given level.
func Logger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
