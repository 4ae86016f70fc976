// Package logging builds the zerolog loggers used across narrator.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Level is the user-facing verbosity. Errors are emitted at every level.
type Level string

const (
	LevelOff     Level = "off"
	LevelSimple  Level = "simple"
	LevelVerbose Level = "verbose"
)

// ParseLevel converts a string to a Level.
func ParseLevel(value string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(value))) {
	case LevelOff, "":
		return LevelOff, nil
	case LevelSimple:
		return LevelSimple, nil
	case LevelVerbose:
		return LevelVerbose, nil
	default:
		return "", fmt.Errorf("invalid log level %q (expected off, simple or verbose)", value)
	}
}

// ZerologLevel maps the verbosity onto a zerolog threshold.
func (l Level) ZerologLevel() zerolog.Level {
	switch l {
	case LevelVerbose:
		return zerolog.DebugLevel
	case LevelSimple:
		return zerolog.InfoLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Format selects the log encoding.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Options configure a logger.
type Options struct {
	Level  Level
	Format Format
	Output io.Writer
}

// New builds a logger. Output defaults to stderr.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Format != FormatJSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).
		Level(opts.Level.ZerologLevel()).
		With().
		Timestamp().
		Logger()
}

// Component tags a logger with a component name.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
