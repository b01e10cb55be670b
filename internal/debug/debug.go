// Package debug provides context-based debug mode and the CLI logger.
package debug

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

type contextKey string

const debugKey contextKey = "debug_enabled"

// WithDebug returns a context with debug mode enabled/disabled.
func WithDebug(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, debugKey, enabled)
}

// IsEnabled returns true if debug mode is enabled in the context.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(debugKey).(bool); ok {
		return v
	}
	return false
}

// NewLogger builds the CLI logger writing to stderr. Terminals get the
// console writer, anything else gets JSON lines.
func NewLogger(debugEnabled bool) zerolog.Logger {
	return newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), debugEnabled)
}

func newLogger(w io.Writer, console, debugEnabled bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debugEnabled {
		level = zerolog.DebugLevel
	}

	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Attach stores the logger and the debug flag on ctx. Library code logs
// through zerolog.Ctx and stays silent on contexts without a logger.
func Attach(ctx context.Context, logger zerolog.Logger, debugEnabled bool) context.Context {
	return WithDebug(logger.WithContext(ctx), debugEnabled)
}
