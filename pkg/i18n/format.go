package i18n

import "time"

// LocaleFormat formats dates for a locale. Immutable and safe for concurrent use.
type LocaleFormat struct {
	dateFormat string
}

// LocaleFormatOption configures a LocaleFormat during construction.
type LocaleFormatOption func(*LocaleFormat)

// NewLocaleFormat creates a LocaleFormat; without options it uses the US English layout.
func NewLocaleFormat(opts ...LocaleFormatOption) *LocaleFormat {
	lf := &LocaleFormat{dateFormat: "01/02/2006"}
	for _, opt := range opts {
		opt(lf)
	}
	return lf
}

// WithDateFormat sets the Go time layout used by FormatDate.
func WithDateFormat(layout string) LocaleFormatOption {
	return func(lf *LocaleFormat) {
		if layout != "" {
			lf.dateFormat = layout
		}
	}
}

// FormatDate formats t with the locale's date layout.
func (lf *LocaleFormat) FormatDate(t time.Time) string {
	return t.Format(lf.dateFormat)
}

var (
	dayMonthSlash = WithDateFormat("02/01/2006")
	dayMonthDot   = WithDateFormat("02.01.2006")

	// Keyed by full tag first, then by base language.
	localeFormats = map[string]*LocaleFormat{
		"en-US": NewLocaleFormat(),
		"en-GB": NewLocaleFormat(dayMonthSlash),
		"en":    NewLocaleFormat(),
		"es":    NewLocaleFormat(dayMonthSlash),
		"fr":    NewLocaleFormat(dayMonthSlash),
		"it":    NewLocaleFormat(dayMonthSlash),
		"pt":    NewLocaleFormat(dayMonthSlash),
		"de":    NewLocaleFormat(dayMonthDot),
		"pl":    NewLocaleFormat(dayMonthDot),
		"ru":    NewLocaleFormat(dayMonthDot),
		"uk":    NewLocaleFormat(dayMonthDot),
		"ja":    NewLocaleFormat(WithDateFormat("2006/01/02")),
		"zh":    NewLocaleFormat(WithDateFormat("2006-01-02")),
		"ko":    NewLocaleFormat(WithDateFormat("2006.01.02")),
	}
)

// FormatFor returns the LocaleFormat for a language code, trying the full
// tag, then its base language, then falling back to US English.
func FormatFor(code string) *LocaleFormat {
	if lf, ok := localeFormats[NormalizeLanguage(code)]; ok {
		return lf
	}
	if lf, ok := localeFormats[BaseLanguage(code)]; ok {
		return lf
	}
	return localeFormats["en-US"]
}
