// Package clients manages follow-up recipients.
package clients

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/followup/internal/domain"
	"github.com/dmitrymomot/followup/internal/store"
	"github.com/dmitrymomot/followup/pkg/i18n"
	"github.com/dmitrymomot/followup/pkg/id"
	"github.com/dmitrymomot/followup/pkg/logger"
)

// Service validates and persists clients.
type Service struct {
	store  store.Clients
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for CreatedAt.
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

// NewService creates a client service over st.
func NewService(st store.Clients, opts ...Option) *Service {
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

// Create stores a new client. An empty ID is generated.
func (s *Service) Create(ctx context.Context, c domain.Client) (domain.Client, error) {
	c = normalize(c)
	if err := c.Validate(); err != nil {
		return domain.Client{}, err
	}

	now := s.now()
	if c.ID == "" {
		c.ID = id.NewULIDAt(now)
	}
	c.CreatedAt = now

	if err := s.store.CreateClient(ctx, c); err != nil {
		return domain.Client{}, fmt.Errorf("create client: %w", err)
	}

	s.logger.InfoContext(ctx, "client created", slog.String("client_id", c.ID))
	return c, nil
}

// Update replaces the editable fields of an existing client. CreatedAt is
// preserved.
func (s *Service) Update(ctx context.Context, c domain.Client) (domain.Client, error) {
	existing, err := s.store.GetClient(ctx, c.ID)
	if err != nil {
		return domain.Client{}, fmt.Errorf("update client: %w", err)
	}

	c = normalize(c)
	if err := c.Validate(); err != nil {
		return domain.Client{}, err
	}
	c.CreatedAt = existing.CreatedAt

	if err := s.store.UpdateClient(ctx, c); err != nil {
		return domain.Client{}, fmt.Errorf("update client: %w", err)
	}
	return c, nil
}

// Touch records an interaction with the client at the current time.
func (s *Service) Touch(ctx context.Context, clientID string) (domain.Client, error) {
	c, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return domain.Client{}, fmt.Errorf("touch client: %w", err)
	}

	now := s.now()
	c.LastInteraction = &now
	if err := s.store.UpdateClient(ctx, c); err != nil {
		return domain.Client{}, fmt.Errorf("touch client: %w", err)
	}
	return c, nil
}

// Delete removes a client. Pending emails addressed to it are left in
// place and fail at dispatch.
func (s *Service) Delete(ctx context.Context, clientID string) error {
	if err := s.store.DeleteClient(ctx, clientID); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	s.logger.InfoContext(ctx, "client deleted", slog.String("client_id", clientID))
	return nil
}

// Get returns a client by id.
func (s *Service) Get(ctx context.Context, clientID string) (domain.Client, error) {
	return s.store.GetClient(ctx, clientID)
}

// List returns all clients.
func (s *Service) List(ctx context.Context) ([]domain.Client, error) {
	return s.store.ListClients(ctx)
}

func normalize(c domain.Client) domain.Client {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Language = i18n.NormalizeLanguage(c.Language)
	if c.Language == "" {
		c.Language = i18n.DefaultLang
	}
	c.Company = trimOptional(c.Company)
	c.Phone = trimOptional(c.Phone)

	if len(c.CustomFields) > 0 {
		fields := make(map[string]string, len(c.CustomFields))
		for k, v := range c.CustomFields {
			if k = strings.TrimSpace(k); k != "" {
				fields[k] = v
			}
		}
		c.CustomFields = fields
	}
	return c
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
