package templates

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/dmitrymomot/followup/internal/domain"
	"github.com/dmitrymomot/followup/pkg/i18n"
	"github.com/dmitrymomot/followup/pkg/mailer"
	"github.com/dmitrymomot/followup/pkg/slug"
)

// frontmatter is the YAML header of a template file.
type frontmatter struct {
	Name    string `yaml:"name"`
	Subject string `yaml:"subject"`
	Primary bool   `yaml:"primary"`
}

// Load reads every <key>.<lang>.md file under fsys and groups the
// languages of one key into a template whose ID is the key. The primary
// language is the one marked primary, else en when present, else the
// first language in sort order.
func Load(fsys fs.FS) ([]domain.EmailTemplate, error) {
	byKey := map[string]*domain.EmailTemplate{}
	primaries := map[string]string{}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".md" {
			return nil
		}

		key, lang, err := splitName(path.Base(p))
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}

		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}

		var meta frontmatter
		body, err := mailer.ParseFrontmatter(raw, &meta)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		if strings.TrimSpace(meta.Subject) == "" {
			return fmt.Errorf("%s: %w", p, ErrMissingSubject)
		}

		protected, restore := i18n.ProtectPlaceholders(string(body))
		html, err := mailer.MarkdownToHTML([]byte(protected))
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}

		t, ok := byKey[key]
		if !ok {
			t = &domain.EmailTemplate{
				ID:      key,
				Subject: map[string]string{},
				Content: map[string]string{},
			}
			byKey[key] = t
		}
		t.Subject[lang] = strings.TrimSpace(meta.Subject)
		t.Content[lang] = restore(html)

		if meta.Primary {
			if prev, ok := primaries[key]; ok && prev != lang {
				return fmt.Errorf("%s: %w (%s, %s)", key, ErrConflictingPrimary, prev, lang)
			}
			primaries[key] = lang
			if meta.Name != "" {
				t.Name = meta.Name
			}
		} else if t.Name == "" {
			t.Name = meta.Name
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	if len(byKey) == 0 {
		return nil, ErrNoTemplates
	}

	out := make([]domain.EmailTemplate, 0, len(byKey))
	for key, t := range byKey {
		t.SyncLanguages()
		t.PrimaryLanguage = primaries[key]
		if t.PrimaryLanguage == "" {
			t.PrimaryLanguage = t.SupportedLanguages[0]
			if slices.Contains(t.SupportedLanguages, i18n.DefaultLang) {
				t.PrimaryLanguage = i18n.DefaultLang
			}
		}
		if t.Name == "" {
			t.Name = key
		}
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b domain.EmailTemplate) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// splitName parses "<key>.<lang>.md". The key is slugified so that
// "Check In.en.md" and "check-in.en.md" land on the same template.
func splitName(name string) (key, lang string, err error) {
	stem := strings.TrimSuffix(name, ".md")
	i := strings.LastIndexByte(stem, '.')
	if i <= 0 || i == len(stem)-1 {
		return "", "", ErrInvalidFileName
	}
	key, lang = slug.Make(stem[:i]), i18n.NormalizeLanguage(stem[i+1:])
	if key == "" || lang == "" {
		return "", "", ErrInvalidFileName
	}
	return key, lang, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
