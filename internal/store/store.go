// Package store defines the persistence contract used by the scheduling,
// dispatch and CRUD layers. Missing entities are reported as
// domain.ErrNotFound by every implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/followup/internal/domain"
)

// ScheduledEmails is the part of the store the scheduler and dispatcher need.
type ScheduledEmails interface {
	// ListPendingDue returns pending emails scheduled at or before now,
	// ordered by domain.DueBefore.
	ListPendingDue(ctx context.Context, now time.Time) ([]domain.ScheduledEmail, error)
	CreateScheduledEmail(ctx context.Context, e domain.ScheduledEmail) error
	GetScheduledEmail(ctx context.Context, id string) (domain.ScheduledEmail, error)
	UpdateScheduledEmail(ctx context.Context, e domain.ScheduledEmail) error
	DeleteScheduledEmail(ctx context.Context, id string) error
	ListScheduledEmails(ctx context.Context, f ScheduledEmailFilter) ([]domain.ScheduledEmail, error)
}

// Clients stores client records.
type Clients interface {
	CreateClient(ctx context.Context, c domain.Client) error
	GetClient(ctx context.Context, id string) (domain.Client, error)
	UpdateClient(ctx context.Context, c domain.Client) error
	DeleteClient(ctx context.Context, id string) error
	ListClients(ctx context.Context) ([]domain.Client, error)
}

// Templates stores email templates.
type Templates interface {
	CreateTemplate(ctx context.Context, t domain.EmailTemplate) error
	GetTemplate(ctx context.Context, id string) (domain.EmailTemplate, error)
	UpdateTemplate(ctx context.Context, t domain.EmailTemplate) error
	DeleteTemplate(ctx context.Context, id string) error
	ListTemplates(ctx context.Context) ([]domain.EmailTemplate, error)
	IncrementTemplateUsage(ctx context.Context, id string) error
}

// Logs is the append-only email log.
type Logs interface {
	AppendLog(ctx context.Context, entry domain.EmailLog) error
	ListLogs(ctx context.Context, f LogFilter) ([]domain.EmailLog, error)
}

// Store is the full persistence collaborator.
type Store interface {
	ScheduledEmails
	Clients
	Templates
	Logs

	Ping(ctx context.Context) error
}

// SendCompleter is implemented by stores that can record a successful send
// (status update, log entry, usage increment) atomically.
type SendCompleter interface {
	CompleteSend(ctx context.Context, e domain.ScheduledEmail, entry domain.EmailLog) error
}

// ErrStatusChanged is returned by StatusSwapper when the email no longer
// has the expected status.
var ErrStatusChanged = errors.New("store: status changed")

// StatusSwapper is implemented by stores that can change an email's status
// only while it still has the expected one, so a concurrent send is never
// overwritten.
type StatusSwapper interface {
	// SwapStatus moves id from one status to another and returns the
	// updated email. When the current status is not from it returns the
	// current email and ErrStatusChanged.
	SwapStatus(ctx context.Context, id string, from, to domain.Status) (domain.ScheduledEmail, error)
}

// ScheduledEmailFilter narrows ListScheduledEmails. Zero fields match all.
type ScheduledEmailFilter struct {
	Status   domain.Status
	ClientID string
	Limit    int
}

// Match reports whether e passes the filter, ignoring Limit.
func (f ScheduledEmailFilter) Match(e domain.ScheduledEmail) bool {
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.ClientID != "" && e.ClientID != f.ClientID {
		return false
	}
	return true
}

// LogFilter narrows ListLogs. Zero fields match all.
type LogFilter struct {
	ClientID         string
	ScheduledEmailID string
	Limit            int
}

// Match reports whether l passes the filter, ignoring Limit.
func (f LogFilter) Match(l domain.EmailLog) bool {
	if f.ClientID != "" && l.ClientID != f.ClientID {
		return false
	}
	if f.ScheduledEmailID != "" && (l.ScheduledEmailID == nil || *l.ScheduledEmailID != f.ScheduledEmailID) {
		return false
	}
	return true
}
