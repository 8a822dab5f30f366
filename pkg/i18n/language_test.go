package i18n_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/followup/pkg/i18n"
)

func TestNormalizeLanguage(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":        "",
		"  ":      "",
		"en":      "en",
		"EN":      "en",
		"en-us":   "en-US",
		"en_US":   "en-US",
		" es-MX ": "es-MX",
	}
	for in, want := range tests {
		assert.Equal(t, want, i18n.NormalizeLanguage(in), "input %q", in)
	}
}

func TestBaseLanguage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pt", i18n.BaseLanguage("pt-BR"))
	assert.Equal(t, "en", i18n.BaseLanguage("en"))
	assert.Equal(t, "", i18n.BaseLanguage(""))
}

func TestFormatFor(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		lang string
		want string
	}{
		{lang: "en", want: "03/15/2024"},
		{lang: "en-GB", want: "15/03/2024"},
		{lang: "es", want: "15/03/2024"},
		{lang: "de-AT", want: "15.03.2024"},
		{lang: "ja", want: "2024/03/15"},
		{lang: "xx", want: "03/15/2024"},
		{lang: "", want: "03/15/2024"},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, i18n.FormatFor(tt.lang).FormatDate(date))
		})
	}

}
