package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/followup/pkg/i18n"
)

// EmailTemplate is a named email with per-language subject and content.
// Variables is derived from the content and never authored directly.
type EmailTemplate struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Subject            map[string]string `json:"subject"`
	Content            map[string]string `json:"content"`
	Variables          []string          `json:"variables"`
	PrimaryLanguage    string            `json:"primary_language"`
	SupportedLanguages []string          `json:"supported_languages"`
	UsageCount         int64             `json:"usage_count"`
	CreatedAt          time.Time         `json:"created_at"`
}

// HasContent reports whether lang has a non-empty subject and content.
func (t EmailTemplate) HasContent(lang string) bool {
	return strings.TrimSpace(t.Subject[lang]) != "" && strings.TrimSpace(t.Content[lang]) != ""
}

// Validate enforces the primary language invariant.
func (t EmailTemplate) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if t.PrimaryLanguage == "" {
		return fmt.Errorf("%w: primary language is required", ErrInvalidTemplate)
	}
	if !slices.Contains(t.SupportedLanguages, t.PrimaryLanguage) {
		return fmt.Errorf("%w: primary language %q is not supported", ErrInvalidTemplate, t.PrimaryLanguage)
	}
	if !t.HasContent(t.PrimaryLanguage) {
		return fmt.Errorf("%w: %s", ErrPrimaryLanguageRequired, t.PrimaryLanguage)
	}
	return nil
}

// ExtractVariables returns the placeholder names used across every
// subject and content, sorted and de-duplicated.
func (t EmailTemplate) ExtractVariables() []string {
	texts := make([]string, 0, len(t.Subject)+len(t.Content))
	for _, s := range t.Subject {
		texts = append(texts, s)
	}
	for _, c := range t.Content {
		texts = append(texts, c)
	}
	return i18n.ExtractPlaceholders(texts...)
}

// SyncLanguages rebuilds SupportedLanguages from the languages that have
// any subject or content, and refreshes Variables.
func (t *EmailTemplate) SyncLanguages() {
	langs := make([]string, 0, len(t.Content))
	for lang := range t.Subject {
		langs = append(langs, lang)
	}
	for lang := range t.Content {
		if _, ok := t.Subject[lang]; !ok {
			langs = append(langs, lang)
		}
	}
	slices.Sort(langs)
	t.SupportedLanguages = langs
	t.Variables = t.ExtractVariables()
}

// RemoveLanguage drops lang from the template. The primary language
// cannot be removed.
func (t *EmailTemplate) RemoveLanguage(lang string) error {
	if lang == t.PrimaryLanguage {
		return fmt.Errorf("%w: cannot remove %s", ErrPrimaryLanguageRequired, lang)
	}
	delete(t.Subject, lang)
	delete(t.Content, lang)
	t.SupportedLanguages = slices.DeleteFunc(t.SupportedLanguages, func(l string) bool { return l == lang })
	t.Variables = t.ExtractVariables()
	return nil
}
