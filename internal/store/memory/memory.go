// Package memory is an in-process store.Store used by tests and by the
// memory store driver. Values are copied on the way in and out so callers
// never share maps or pointers with the store.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/followup/internal/domain"
	"github.com/dmitrymomot/followup/internal/store"
)

// Store keeps every entity in mutex-guarded maps.
type Store struct {
	mu        sync.RWMutex
	clients   map[string]domain.Client
	templates map[string]domain.EmailTemplate
	emails    map[string]domain.ScheduledEmail
	logs      []domain.EmailLog
}

// New returns an empty store.
func New() *Store {
	return &Store{
		clients:   make(map[string]domain.Client),
		templates: make(map[string]domain.EmailTemplate),
		emails:    make(map[string]domain.ScheduledEmail),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) ListPendingDue(_ context.Context, now time.Time) ([]domain.ScheduledEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []domain.ScheduledEmail
	for _, e := range s.emails {
		if e.IsDue(now) {
			due = append(due, cloneEmail(e))
		}
	}
	slices.SortFunc(due, domain.DueBefore)
	return due, nil
}

func (s *Store) CreateScheduledEmail(_ context.Context, e domain.ScheduledEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails[e.ID] = cloneEmail(e)
	return nil
}

func (s *Store) GetScheduledEmail(_ context.Context, id string) (domain.ScheduledEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.emails[id]
	if !ok {
		return domain.ScheduledEmail{}, domain.ErrNotFound
	}
	return cloneEmail(e), nil
}

func (s *Store) UpdateScheduledEmail(_ context.Context, e domain.ScheduledEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[e.ID]; !ok {
		return domain.ErrNotFound
	}
	s.emails[e.ID] = cloneEmail(e)
	return nil
}

func (s *Store) DeleteScheduledEmail(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.emails, id)
	return nil
}

func (s *Store) ListScheduledEmails(_ context.Context, f store.ScheduledEmailFilter) ([]domain.ScheduledEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ScheduledEmail
	for _, e := range s.emails {
		if f.Match(e) {
			out = append(out, cloneEmail(e))
		}
	}
	slices.SortFunc(out, domain.DueBefore)
	return limit(out, f.Limit), nil
}

func (s *Store) CreateClient(_ context.Context, c domain.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = cloneClient(c)
	return nil
}

func (s *Store) GetClient(_ context.Context, id string) (domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[id]
	if !ok {
		return domain.Client{}, domain.ErrNotFound
	}
	return cloneClient(c), nil
}

func (s *Store) UpdateClient(_ context.Context, c domain.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[c.ID]; !ok {
		return domain.ErrNotFound
	}
	s.clients[c.ID] = cloneClient(c)
	return nil
}

func (s *Store) DeleteClient(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.clients, id)
	return nil
}

func (s *Store) ListClients(context.Context) ([]domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, cloneClient(c))
	}
	slices.SortFunc(out, func(a, b domain.Client) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (s *Store) CreateTemplate(_ context.Context, t domain.EmailTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = cloneTemplate(t)
	return nil
}

func (s *Store) GetTemplate(_ context.Context, id string) (domain.EmailTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[id]
	if !ok {
		return domain.EmailTemplate{}, domain.ErrNotFound
	}
	return cloneTemplate(t), nil
}

func (s *Store) UpdateTemplate(_ context.Context, t domain.EmailTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[t.ID]; !ok {
		return domain.ErrNotFound
	}
	s.templates[t.ID] = cloneTemplate(t)
	return nil
}

func (s *Store) DeleteTemplate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.templates, id)
	return nil
}

func (s *Store) ListTemplates(context.Context) ([]domain.EmailTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.EmailTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, cloneTemplate(t))
	}
	slices.SortFunc(out, func(a, b domain.EmailTemplate) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (s *Store) IncrementTemplateUsage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incrementUsage(id)
}

func (s *Store) incrementUsage(id string) error {
	t, ok := s.templates[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.UsageCount++
	s.templates[id] = t
	return nil
}

func (s *Store) AppendLog(_ context.Context, entry domain.EmailLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, cloneLog(entry))
	return nil
}

// ListLogs returns matching entries in append order.
func (s *Store) ListLogs(_ context.Context, f store.LogFilter) ([]domain.EmailLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.EmailLog
	for _, l := range s.logs {
		if f.Match(l) {
			out = append(out, cloneLog(l))
		}
	}
	return limit(out, f.Limit), nil
}

// CompleteSend applies the status update, log append and usage increment
// under one lock. A template deleted since the send does not fail the call.
func (s *Store) CompleteSend(_ context.Context, e domain.ScheduledEmail, entry domain.EmailLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[e.ID]; !ok {
		return domain.ErrNotFound
	}
	s.emails[e.ID] = cloneEmail(e)
	s.logs = append(s.logs, cloneLog(entry))
	if err := s.incrementUsage(e.TemplateID); err != nil && err != domain.ErrNotFound {
		return err
	}
	return nil
}

// SwapStatus changes the status of id under the write lock only when it is
// still from.
func (s *Store) SwapStatus(_ context.Context, id string, from, to domain.Status) (domain.ScheduledEmail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.emails[id]
	if !ok {
		return domain.ScheduledEmail{}, domain.ErrNotFound
	}
	if e.Status != from {
		return cloneEmail(e), store.ErrStatusChanged
	}
	e.Status = to
	s.emails[id] = e
	return cloneEmail(e), nil
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func cloneClient(c domain.Client) domain.Client {
	c.Company = clonePtr(c.Company)
	c.Phone = clonePtr(c.Phone)
	c.LastInteraction = clonePtr(c.LastInteraction)
	c.CustomFields = maps.Clone(c.CustomFields)
	return c
}

func cloneTemplate(t domain.EmailTemplate) domain.EmailTemplate {
	t.Subject = maps.Clone(t.Subject)
	t.Content = maps.Clone(t.Content)
	t.Variables = slices.Clone(t.Variables)
	t.SupportedLanguages = slices.Clone(t.SupportedLanguages)
	return t
}

func cloneEmail(e domain.ScheduledEmail) domain.ScheduledEmail {
	e.Subject = clonePtr(e.Subject)
	e.Content = clonePtr(e.Content)
	e.SentAt = clonePtr(e.SentAt)
	e.ErrorMessage = clonePtr(e.ErrorMessage)
	return e
}

func cloneLog(l domain.EmailLog) domain.EmailLog {
	l.TemplateID = clonePtr(l.TemplateID)
	l.ScheduledEmailID = clonePtr(l.ScheduledEmailID)
	l.DeliveredAt = clonePtr(l.DeliveredAt)
	l.OpenedAt = clonePtr(l.OpenedAt)
	l.ErrorMessage = clonePtr(l.ErrorMessage)
	return l
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var (
	_ store.Store         = (*Store)(nil)
	_ store.SendCompleter = (*Store)(nil)
)
