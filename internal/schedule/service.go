// Package schedule creates and cancels scheduled emails and resolves
// symbolic delays to due times.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/followup/internal/domain"
	"github.com/dmitrymomot/followup/internal/metrics"
	"github.com/dmitrymomot/followup/internal/store"
	"github.com/dmitrymomot/followup/pkg/i18n"
	"github.com/dmitrymomot/followup/pkg/id"
	"github.com/dmitrymomot/followup/pkg/logger"
)

// ScheduleParams describes a follow-up to schedule. Language defaults to
// i18n.DefaultLang.
type ScheduleParams struct {
	ClientID   string
	TemplateID string
	Delay      Delay
	Language   string
}

// Service schedules follow-ups. Client and template existence is checked
// at dispatch time, not here.
type Service struct {
	store  store.ScheduledEmails
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a scheduling service over st.
func NewService(st store.ScheduledEmails, opts ...Option) *Service {
	s := &Service{
		store:  st,
		now:    time.Now,
		logger: logger.NewNope(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleEmail creates a pending scheduled email due at the resolved
// delay.
func (s *Service) ScheduleEmail(ctx context.Context, p ScheduleParams) (domain.ScheduledEmail, error) {
	if strings.TrimSpace(p.ClientID) == "" || strings.TrimSpace(p.TemplateID) == "" {
		return domain.ScheduledEmail{}, fmt.Errorf("%w: client and template ids are required", ErrInvalidParams)
	}
	if !p.Delay.Valid() {
		return domain.ScheduledEmail{}, fmt.Errorf("%w: %q", ErrInvalidDelay, p.Delay)
	}

	lang := i18n.DefaultLang
	if strings.TrimSpace(p.Language) != "" {
		lang = i18n.NormalizeLanguage(p.Language)
	}

	now := s.now()
	e := domain.ScheduledEmail{
		ID:          id.NewULIDAt(now),
		ClientID:    p.ClientID,
		TemplateID:  p.TemplateID,
		ScheduledAt: ResolveDueTime(p.Delay, now),
		Status:      domain.StatusPending,
		Language:    lang,
		CreatedAt:   now,
	}
	if err := s.store.CreateScheduledEmail(ctx, e); err != nil {
		return domain.ScheduledEmail{}, fmt.Errorf("schedule email: %w", err)
	}

	metrics.IncScheduled(string(p.Delay))
	s.logger.InfoContext(ctx, "email scheduled",
		slog.String("scheduled_email_id", e.ID),
		slog.String("client_id", e.ClientID),
		slog.String("template_id", e.TemplateID),
		slog.Time("scheduled_at", e.ScheduledAt),
	)
	return e, nil
}

// Cancel moves a pending email to cancelled. It returns ErrNotPending for
// emails that already reached a terminal state. Stores implementing
// store.StatusSwapper make the transition conditional, so an email sent
// while Cancel runs stays sent.
func (s *Service) Cancel(ctx context.Context, id string) (domain.ScheduledEmail, error) {
	e, err := s.cancel(ctx, id)
	if err != nil {
		return e, err
	}

	metrics.IncCancelled()
	s.logger.InfoContext(ctx, "scheduled email cancelled", slog.String("scheduled_email_id", id))
	return e, nil
}

func (s *Service) cancel(ctx context.Context, id string) (domain.ScheduledEmail, error) {
	if sw, ok := s.store.(store.StatusSwapper); ok {
		e, err := sw.SwapStatus(ctx, id, domain.StatusPending, domain.StatusCancelled)
		switch {
		case errors.Is(err, store.ErrStatusChanged):
			return e, fmt.Errorf("%w: %s is %s", ErrNotPending, id, e.Status)
		case err != nil:
			return domain.ScheduledEmail{}, fmt.Errorf("cancel scheduled email: %w", err)
		}
		return e, nil
	}

	e, err := s.store.GetScheduledEmail(ctx, id)
	if err != nil {
		return domain.ScheduledEmail{}, fmt.Errorf("cancel scheduled email: %w", err)
	}
	if e.Status != domain.StatusPending {
		return e, fmt.Errorf("%w: %s is %s", ErrNotPending, id, e.Status)
	}

	e.Status = domain.StatusCancelled
	if err := s.store.UpdateScheduledEmail(ctx, e); err != nil {
		return domain.ScheduledEmail{}, fmt.Errorf("cancel scheduled email: %w", err)
	}
	return e, nil
}

// Get returns a scheduled email by id.
func (s *Service) Get(ctx context.Context, id string) (domain.ScheduledEmail, error) {
	return s.store.GetScheduledEmail(ctx, id)
}

// List returns scheduled emails matching f.
func (s *Service) List(ctx context.Context, f store.ScheduledEmailFilter) ([]domain.ScheduledEmail, error) {
	return s.store.ListScheduledEmails(ctx, f)
}
