// Package scheduler runs the dispatch engine on a fixed cadence.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/followup/internal/dispatch"
	"github.com/dmitrymomot/followup/internal/domain"
	"github.com/dmitrymomot/followup/internal/metrics"
	"github.com/dmitrymomot/followup/pkg/logger"
)

const defaultInterval = time.Minute

// staleIntervals is how many missed intervals make the loop unhealthy.
const staleIntervals = 3

var (
	// ErrNotRunning is reported by Healthcheck while the loop is stopped.
	ErrNotRunning = errors.New("scheduler: not running")
	// ErrStalled is reported by Healthcheck when no tick has started for
	// several intervals, e.g. because one tick hangs.
	ErrStalled = errors.New("scheduler: stalled")
)

// DueLister fetches due pending emails.
type DueLister interface {
	ListPendingDue(ctx context.Context, now time.Time) ([]domain.ScheduledEmail, error)
}

// Dispatcher processes a batch of due emails.
type Dispatcher interface {
	ProcessBatch(ctx context.Context, records []domain.ScheduledEmail) dispatch.BatchResult
}

// TickResult summarizes one tick.
type TickResult struct {
	ID    string
	At    time.Time
	Due   int
	Batch dispatch.BatchResult
	Err   error
}

// Loop owns the recurring timer. Several loops may exist at once; each
// has its own cron instance.
type Loop struct {
	dispatcher Dispatcher
	due        DueLister
	interval   time.Duration
	now        func() time.Time
	logger     *slog.Logger

	mu       sync.Mutex
	cron     *cron.Cron
	cancel    context.CancelFunc
	startedAt time.Time
	lastTick  time.Time
}

// Option configures a Loop.
type Option func(*Loop)

// WithInterval sets the tick cadence. Cron schedules have one second
// resolution. Default: 1 minute.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d >= time.Second {
			l.interval = d
		}
	}
}

// WithClock overrides the time used to decide what is due.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the loop logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Loop) {
		if log != nil {
			l.logger = log
		}
	}
}

// New creates a stopped loop.
func New(dispatcher Dispatcher, due DueLister, opts ...Option) *Loop {
	l := &Loop{
		dispatcher: dispatcher,
		due:        due,
		interval:   defaultInterval,
		now:        time.Now,
		logger:     logger.NewNope(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start begins ticking. Calling Start on a running loop is a no-op. Ticks
// run with a context derived from ctx without its cancellation; Stop ends
// them.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cron != nil {
		return nil
	}

	clog := cronLogger{log: l.logger}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	spec := "@every " + l.interval.String()
	if _, err := c.AddFunc(spec, func() { l.Tick(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("scheduler: schedule %q: %w", spec, err)
	}

	c.Start()
	l.cron = c
	l.cancel = cancel
	l.startedAt = l.now()
	l.logger.InfoContext(ctx, "scheduler started", slog.Duration("interval", l.interval))
	return nil
}

// Stop halts the timer and waits for an in-flight tick to finish or for
// ctx to expire, whichever comes first. When ctx expires the tick's
// context is cancelled. Stop on a stopped loop is a no-op.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	c, cancel := l.cron, l.cancel
	l.cron, l.cancel = nil, nil
	l.mu.Unlock()

	if c == nil {
		return nil
	}
	defer cancel()

	select {
	case <-c.Stop().Done():
		l.logger.InfoContext(ctx, "scheduler stopped")
		return nil
	case <-ctx.Done():
		l.logger.WarnContext(ctx, "scheduler stop timed out, cancelling in-flight tick")
		return ctx.Err()
	}
}

// Running reports whether the timer is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cron != nil
}

// Healthcheck fails while the loop is stopped, and when no tick has
// started for staleIntervals intervals since the last tick or Start.
func (l *Loop) Healthcheck(context.Context) error {
	l.mu.Lock()
	running, since := l.cron != nil, l.startedAt
	l.mu.Unlock()
	if !running {
		return ErrNotRunning
	}

	if last := l.LastTick(); last.After(since) {
		since = last
	}
	if idle := l.now().Sub(since); idle > staleIntervals*l.interval {
		return fmt.Errorf("%w: no tick for %s", ErrStalled, idle.Round(time.Second))
	}
	return nil
}

// LastTick returns the start time of the most recent tick.
func (l *Loop) LastTick() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastTick
}

// Tick fetches due emails and dispatches them in order. Fetch errors and
// panics are logged and reported in the result; they never propagate.
func (l *Loop) Tick(ctx context.Context) (res TickResult) {
	res.ID = uuid.NewString()
	res.At = l.now()
	ctx = WithTickID(ctx, res.ID)

	l.mu.Lock()
	l.lastTick = res.At
	l.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("scheduler: tick panic: %v", r)
			metrics.IncTick(metrics.TickPanic)
			l.logger.ErrorContext(ctx, "tick panicked", slog.String("error", res.Err.Error()))
		}
	}()

	due, err := l.due.ListPendingDue(ctx, res.At)
	if err != nil {
		res.Err = fmt.Errorf("scheduler: fetch due emails: %w", err)
		metrics.IncTick(metrics.TickFetchError)
		l.logger.ErrorContext(ctx, "failed to fetch due emails", slog.String("error", err.Error()))
		return res
	}

	res.Due = len(due)
	metrics.SetDue(res.Due)
	metrics.IncTick(metrics.TickOK)
	if res.Due == 0 {
		return res
	}

	res.Batch = l.dispatcher.ProcessBatch(ctx, due)
	l.logger.InfoContext(ctx, "tick processed",
		slog.Int("due", res.Due),
		slog.Int("sent", res.Batch.Sent),
		slog.Int("recovered", res.Batch.Recovered),
		slog.Int("failed", res.Batch.Failed),
		slog.Int("skipped", res.Batch.Skipped),
	)
	return res
}
