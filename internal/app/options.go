package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/followup/pkg/health"
)

const (
	defaultAddress         = ":8081"
	defaultShutdownTimeout = 30 * time.Second
)

// Option configures an App.
type Option func(*App)

// WithAddress sets the ops server address. Default ":8081".
func WithAddress(addr string) Option {
	return func(a *App) {
		if addr != "" {
			a.address = addr
		}
	}
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithShutdownTimeout bounds the whole shutdown sequence. Default 30s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.shutdownTimeout = d
		}
	}
}

// WithService registers a background service. Services start in
// registration order before the ops server accepts requests and stop in
// reverse order.
func WithService(name string, s Service) Option {
	return func(a *App) {
		if s != nil {
			a.services = append(a.services, namedService{name: name, Service: s})
		}
	}
}

// WithHealthCheck adds a named readiness check.
func WithHealthCheck(name string, fn health.CheckFunc) Option {
	return func(a *App) {
		if name != "" && fn != nil {
			a.checks[name] = fn
		}
	}
}

// WithShutdownHook registers a cleanup function run after services stop.
// Hooks run in registration order and share the shutdown deadline.
//
//	app.WithShutdownHook(db.Shutdown(pool))
func WithShutdownHook(fn func(context.Context) error) Option {
	return func(a *App) {
		if fn != nil {
			a.shutdownHooks = append(a.shutdownHooks, fn)
		}
	}
}

// WithContext sets the base context for signal handling.
func WithContext(ctx context.Context) Option {
	return func(a *App) {
		if ctx != nil {
			a.baseCtx = ctx
		}
	}
}
