package logger

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// FromContext returns the *slog.Logger from context, or slog.Default() if not found.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// WithContext stores the *slog.Logger in context.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// WithAttrs adds attributes to the logger in context and returns a new context.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	return WithContext(ctx, FromContext(ctx).With(args...))
}
