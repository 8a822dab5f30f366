package dispatch

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/followup/pkg/cache"
)

const defaultMarkTTL = 7 * 24 * time.Hour

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for sent timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithFrom sets the sender address. Empty leaves the transport default.
func WithFrom(from string) Option {
	return func(e *Engine) {
		e.from = from
	}
}

// WithSendMarks replaces the in-memory send-mark cache, for example with a
// Redis-backed one that survives restarts. The engine does not close it.
func WithSendMarks(c cache.Cache[SendMark]) Option {
	return func(e *Engine) {
		if c != nil {
			e.marks = c
			e.ownsMarks = false
		}
	}
}

// WithMarkTTL sets how long send marks are kept. Default: 7 days.
func WithMarkTTL(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.markTTL = d
		}
	}
}
