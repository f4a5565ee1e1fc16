package logger

import (
	"context"
	"log/slog"
)

type contextKeyT string

var contextKey = contextKeyT("github.com/pure-golang/zeptomail/logger")

// NewContext returns a copy of ctx carrying l.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey, l)
}

// FromContext returns the logger stored in ctx or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOr(ctx, slog.Default())
}

// FromContextOr returns the logger stored in ctx or fallback.
func FromContextOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(contextKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return fallback
}

// FromContextWithErr returns the context logger with an error field.
func FromContextWithErr(ctx context.Context, err error) *slog.Logger {
	return appendErr(FromContext(ctx), err)
}

// FromContextWithErrIf is FromContextWithErr, or a no-op logger when err is nil.
func FromContextWithErrIf(ctx context.Context, err error) *slog.Logger {
	if err == nil {
		return Noop()
	}
	return FromContextWithErr(ctx, err)
}
