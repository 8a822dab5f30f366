// Package render resolves a template into the subject and body sent to a
// client.
package render

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/followup/internal/domain"
	"github.com/dmitrymomot/followup/pkg/i18n"
)

// ErrContentUnavailable is returned when neither the requested nor the
// primary language has both a subject and content.
var ErrContentUnavailable = errors.New("template content not available")

// Content is a rendered email.
type Content struct {
	Subject string
	Body    string
	// Language is the template language actually used.
	Language string
}

// Render picks lang when the template has content for it and falls back to
// the primary language otherwise. Placeholders without a value in vars are
// left untouched.
func Render(tpl domain.EmailTemplate, lang string, vars i18n.M) (Content, error) {
	used := lang
	if !tpl.HasContent(used) {
		used = tpl.PrimaryLanguage
	}
	if !tpl.HasContent(used) {
		return Content{}, fmt.Errorf("%w: %s", ErrContentUnavailable, lang)
	}

	return Content{
		Subject:  i18n.ReplacePlaceholders(tpl.Subject[used], vars),
		Body:     i18n.ReplacePlaceholders(tpl.Content[used], vars),
		Language: used,
	}, nil
}
