// Package logger builds slog loggers with context extraction and optional
// Sentry forwarding.
//
// A ContextExtractor pulls a value out of the context on every log call,
// which is how per-tick correlation ids end up on every dispatch log line:
//
//	tickID := func(ctx context.Context) (slog.Attr, bool) {
//		if id, ok := ctx.Value(tickKey{}).(string); ok {
//			return slog.String("tick_id", id), true
//		}
//		return slog.Attr{}, false
//	}
//	log := logger.New(logger.Config{Level: "info"}, tickID)
//
// NewWithSentry additionally routes warnings and errors to Sentry when a
// DSN is configured and falls back to stdout only otherwise.
package logger
