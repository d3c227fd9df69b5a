// Package logging defines a minimal structured-logging interface used across
// the project. Implementations can wrap slog, zap, zerolog, etc.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "bookmark saved", "story_id", id)
type Logger interface {
	// Debug logs verbose diagnostics (cache hits, transitions that were ignored).
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// OrNop returns l, or a logger that discards everything when l is nil.
// Constructors use it so callers may pass a nil Logger.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNop()
	}
	return l
}
