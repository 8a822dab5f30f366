// Package templates manages multilingual email templates and imports
// them from markdown files.
package templates

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
	"github.com/dmitrymomot/followup/pkg/sanitizer"
)

// Service validates and persists templates. Content is sanitized on every
// write, and SupportedLanguages and Variables are always derived.
type Service struct {
	store  store.Templates
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

// NewService creates a template service over st.
func NewService(st store.Templates, opts ...Option) *Service {
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

// Create stores a new template with a zero usage count. An empty ID is
// generated.
func (s *Service) Create(ctx context.Context, t domain.EmailTemplate) (domain.EmailTemplate, error) {
	t = prepare(t)
	if err := t.Validate(); err != nil {
		return domain.EmailTemplate{}, err
	}

	now := s.now()
	if t.ID == "" {
		t.ID = id.NewULIDAt(now)
	}
	t.CreatedAt = now
	t.UsageCount = 0

	if err := s.store.CreateTemplate(ctx, t); err != nil {
		return domain.EmailTemplate{}, fmt.Errorf("create template: %w", err)
	}

	s.logger.InfoContext(ctx, "template created",
		slog.String("template_id", t.ID),
		slog.Any("languages", t.SupportedLanguages),
	)
	return t, nil
}

// Update replaces names, subjects and content. CreatedAt and UsageCount
// are kept from the stored template.
func (s *Service) Update(ctx context.Context, t domain.EmailTemplate) (domain.EmailTemplate, error) {
	existing, err := s.store.GetTemplate(ctx, t.ID)
	if err != nil {
		return domain.EmailTemplate{}, fmt.Errorf("update template: %w", err)
	}

	t = prepare(t)
	if err := t.Validate(); err != nil {
		return domain.EmailTemplate{}, err
	}
	t.CreatedAt = existing.CreatedAt
	t.UsageCount = existing.UsageCount

	if err := s.store.UpdateTemplate(ctx, t); err != nil {
		return domain.EmailTemplate{}, fmt.Errorf("update template: %w", err)
	}
	return t, nil
}

// SetLanguage adds or replaces one translation.
func (s *Service) SetLanguage(ctx context.Context, templateID, lang, subject, content string) (domain.EmailTemplate, error) {
	t, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return domain.EmailTemplate{}, fmt.Errorf("set template language: %w", err)
	}

	lang = i18n.NormalizeLanguage(lang)
	if lang == "" {
		return domain.EmailTemplate{}, fmt.Errorf("%w: language is required", domain.ErrInvalidTemplate)
	}
	if t.Subject == nil {
		t.Subject = map[string]string{}
	}
	if t.Content == nil {
		t.Content = map[string]string{}
	}
	t.Subject[lang] = subject
	t.Content[lang] = content

	return s.Update(ctx, t)
}

// RemoveLanguage drops a translation. Removing the primary language is
// rejected with domain.ErrPrimaryLanguageRequired.
func (s *Service) RemoveLanguage(ctx context.Context, templateID, lang string) (domain.EmailTemplate, error) {
	t, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return domain.EmailTemplate{}, fmt.Errorf("remove template language: %w", err)
	}
	if err := t.RemoveLanguage(i18n.NormalizeLanguage(lang)); err != nil {
		return domain.EmailTemplate{}, err
	}
	if err := s.store.UpdateTemplate(ctx, t); err != nil {
		return domain.EmailTemplate{}, fmt.Errorf("remove template language: %w", err)
	}
	return t, nil
}

// Delete removes a template. Pending emails that reference it fail at
// dispatch.
func (s *Service) Delete(ctx context.Context, templateID string) error {
	if err := s.store.DeleteTemplate(ctx, templateID); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	s.logger.InfoContext(ctx, "template deleted", slog.String("template_id", templateID))
	return nil
}

// Get returns a template by id.
func (s *Service) Get(ctx context.Context, templateID string) (domain.EmailTemplate, error) {
	return s.store.GetTemplate(ctx, templateID)
}

// List returns all templates.
func (s *Service) List(ctx context.Context) ([]domain.EmailTemplate, error) {
	return s.store.ListTemplates(ctx)
}

// ImportResult counts what Import wrote.
type ImportResult struct {
	Created int
	Updated int
}

// Import upserts templates by ID, typically the output of Load.
func (s *Service) Import(ctx context.Context, tpls []domain.EmailTemplate) (ImportResult, error) {
	var res ImportResult
	for _, t := range tpls {
		_, err := s.store.GetTemplate(ctx, t.ID)
		switch {
		case err == nil:
			if _, err := s.Update(ctx, t); err != nil {
				return res, fmt.Errorf("import %s: %w", t.ID, err)
			}
			res.Updated++
		case isNotFound(err):
			if _, err := s.Create(ctx, t); err != nil {
				return res, fmt.Errorf("import %s: %w", t.ID, err)
			}
			res.Created++
		default:
			return res, fmt.Errorf("import %s: %w", t.ID, err)
		}
	}
	return res, nil
}

// prepare normalizes language keys, sanitizes content and derives the
// language list and variables.
func prepare(t domain.EmailTemplate) domain.EmailTemplate {
	t.Name = strings.TrimSpace(t.Name)
	t.PrimaryLanguage = i18n.NormalizeLanguage(t.PrimaryLanguage)
	if t.PrimaryLanguage == "" {
		t.PrimaryLanguage = i18n.DefaultLang
	}

	subject := make(map[string]string, len(t.Subject))
	for lang, v := range t.Subject {
		if lang = i18n.NormalizeLanguage(lang); lang != "" {
			subject[lang] = strings.TrimSpace(v)
		}
	}
	content := make(map[string]string, len(t.Content))
	for lang, v := range t.Content {
		if lang = i18n.NormalizeLanguage(lang); lang != "" {
			content[lang] = sanitizeContent(v)
		}
	}
	t.Subject, t.Content = subject, content
	t.SyncLanguages()
	return t
}

// sanitizeContent cleans HTML without touching placeholders, so that
// {{name}} inside href or src survives URL encoding.
func sanitizeContent(s string) string {
	protected, restore := i18n.ProtectPlaceholders(s)
	return restore(sanitizer.SanitizeHTML(protected))
}
