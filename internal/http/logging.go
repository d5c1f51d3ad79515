package http

import (
	"context"
	"log/slog"
)

// defaultLogger guards handler constructors against a nil logger.
func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// handlerLogger resolves the request-scoped logger and tags it with the
// handler and operation, so every line emitted while serving one request
// carries the same attributes.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handler, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	tagged := logger.With("handler", handler)
	if operation != "" {
		tagged = tagged.With("operation", operation)
	}
	if len(attrs) > 0 {
		tagged = tagged.With(attrs...)
	}
	return tagged
}
