package slogx

import (
	"context"
	"log/slog"

	"github.com/dimbox/dimbox/pkg/idx"
)

type (
	loggerKey    struct{}
	requestIDKey struct{}
)

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithRequestID stores id in ctx and tags the contextual logger with it, so
// outbound API calls made while serving a view carry the same id.
func WithRequestID(ctx context.Context, id idx.ID) context.Context {
	ctx = context.WithValue(ctx, requestIDKey{}, id)
	return WithContext(ctx, FromContext(ctx).With("req_id", id.String()))
}

// RequestID returns the id stored by WithRequestID, or idx.Zero.
func RequestID(ctx context.Context) idx.ID {
	id, _ := ctx.Value(requestIDKey{}).(idx.ID)
	return id
}
