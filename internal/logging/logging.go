// Package logging builds the process-wide zerolog logger.
package logging

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a JSON logger writing to w, or a console logger when env is
// "development". Unknown levels fall back to info.
func New(env, level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := w
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "clinicapi").Logger()
}
