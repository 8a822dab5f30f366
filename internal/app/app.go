// Package app wires the long-running process: background services, the
// ops HTTP server and graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/followup/pkg/health"
	"github.com/dmitrymomot/followup/pkg/logger"
)

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultReadTimeout       = 10 * time.Second
	defaultWriteTimeout      = 10 * time.Second
	defaultIdleTimeout       = 60 * time.Second
)

// Service is a background component with an explicit lifecycle, such as
// the scheduler loop.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type namedService struct {
	Service
	name string
}

// App runs services next to an ops server exposing /health/live,
// /health/ready and /metrics.
type App struct {
	address         string
	logger          *slog.Logger
	shutdownTimeout time.Duration
	services        []namedService
	checks          health.Checks
	shutdownHooks   []func(context.Context) error
	baseCtx         context.Context

	router   chi.Router
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	listener net.Listener
}

// New creates an App.
func New(opts ...Option) *App {
	a := &App{
		address:         defaultAddress,
		logger:          logger.NewNope(),
		shutdownTimeout: defaultShutdownTimeout,
		checks:          health.Checks{},
		baseCtx:         context.Background(),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.router = a.routes()
	return a
}

// Handler returns the ops router.
func (a *App) Handler() http.Handler {
	return a.router
}

// Addr returns the bound address once Run is listening.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Run starts services and the ops server, then blocks until SIGINT,
// SIGTERM, Stop or a server failure, and shuts everything down.
func (a *App) Run() error {
	ctx, cancel := signal.NotifyContext(a.baseCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ln, err := net.Listen("tcp", a.address)
	if err != nil {
		return a.abort(fmt.Errorf("app: listen %s: %w", a.address, err))
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()

	if err := a.startServices(ctx); err != nil {
		_ = ln.Close()
		return a.abort(err)
	}

	server := &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("ops server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-a.done:
		}
		return a.shutdown(server)
	})

	return g.Wait()
}

// Stop triggers a graceful shutdown of a running App.
func (a *App) Stop() {
	a.stopOnce.Do(func() { close(a.done) })
}

func (a *App) startServices(ctx context.Context) error {
	for i, s := range a.services {
		if err := s.Start(ctx); err != nil {
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout)
			defer cancel()
			for j := i - 1; j >= 0; j-- {
				_ = a.services[j].Stop(stopCtx)
			}
			return fmt.Errorf("app: start %s: %w", s.name, err)
		}
		a.logger.Info("service started", slog.String("service", s.name))
	}
	return nil
}

func (a *App) shutdown(server *http.Server) error {
	a.logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var errs []error

	if err := server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("ops server: %w", err))
	}

	for i := len(a.services) - 1; i >= 0; i-- {
		s := a.services[i]
		if err := s.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", s.name, err))
			a.logger.Error("service stop failed", slog.String("service", s.name), slog.String("error", err.Error()))
		}
	}

	errs = append(errs, a.runHooks(ctx)...)

	if len(errs) > 0 {
		a.logger.Error("shutdown completed with errors")
		return errors.Join(errs...)
	}

	a.logger.Info("shutdown completed")
	return nil
}

// abort releases resources owned by shutdown hooks when Run fails before
// serving.
func (a *App) abort(err error) error {
	a.logger.Error("startup failed", slog.String("error", err.Error()))
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	return errors.Join(append([]error{err}, a.runHooks(ctx)...)...)
}

func (a *App) runHooks(ctx context.Context) []error {
	var errs []error
	for _, hook := range a.shutdownHooks {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
			a.logger.Error("shutdown hook failed", slog.String("error", err.Error()))
		}
	}
	return errs
}

func (a *App) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(recoverer(a.logger))
	r.Get("/health/live", health.LivenessHandler())
	r.Get("/health/ready", health.ReadinessHandler(a.checks, health.WithLogger(a.logger)))
	r.Handle("/metrics", promhttp.Handler())
	return r
}
