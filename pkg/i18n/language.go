package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLang is used whenever no language is known.
const DefaultLang = "en"

// NormalizeLanguage returns the canonical BCP 47 form of code
// ("EN_us" -> "en-US"). Empty input yields an empty string; input that
// cannot be parsed is returned trimmed and lower-cased.
func NormalizeLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}

	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToLower(code)
	}
	return tag.String()
}

// BaseLanguage strips region and script from a language tag ("pt-BR" -> "pt").
func BaseLanguage(code string) string {
	normalized := NormalizeLanguage(code)
	if normalized == "" {
		return ""
	}

	tag, err := language.Parse(normalized)
	if err != nil {
		if i := strings.IndexAny(normalized, "-_"); i > 0 {
			return normalized[:i]
		}
		return normalized
	}

	base, _ := tag.Base()
	return base.String()
}
