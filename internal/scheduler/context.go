package scheduler

import (
	"context"

	"github.com/dmitrymomot/followup/pkg/logger"
)

type tickIDKey struct{}

// WithTickID stores a tick correlation id in ctx.
func WithTickID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, tickIDKey{}, id)
}

// TickID returns the tick correlation id stored in ctx, if any.
func TickID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(tickIDKey{}).(string)
	return id, ok && id != ""
}

// TickIDExtractor adds tick_id to log records; pass it to logger.New.
var TickIDExtractor = logger.StringExtractor("tick_id", TickID)
