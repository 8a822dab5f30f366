package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/followup/pkg/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		opts     []slug.Option
		expected string
	}{
		{name: "simple text", input: "Hello World", expected: "hello-world"},
		{name: "punctuation", input: "Hello, World!", expected: "hello-world"},
		{name: "numbers", input: "Price: $99.99", expected: "price-99-99"},
		{name: "surrounding spaces", input: "  Trim   Me  ", expected: "trim-me"},
		{name: "empty", input: "", expected: ""},
		{name: "only symbols", input: "!@#$%^&*()", expected: ""},
		{name: "diacritics", input: "Café résumé naïve", expected: "cafe-resume-naive"},
		{name: "non decomposing letters", input: "München Straße Søren", expected: "munchen-strasse-soren"},
		{name: "unsupported script", input: "hello мир", expected: "hello"},
		{name: "already a key", input: "check-in", expected: "check-in"},
		{name: "custom separator", input: "Weekly Check-in", opts: []slug.Option{slug.Separator("_")}, expected: "weekly_check_in"},
		{name: "max length at word boundary", input: "This is a very long title", opts: []slug.Option{slug.MaxLength(12)}, expected: "this-is-a"},
		{name: "max length exact word end", input: "alpha beta gamma", opts: []slug.Option{slug.MaxLength(10)}, expected: "alpha-beta"},
		{name: "max length single long word", input: "supercalifragilistic", opts: []slug.Option{slug.MaxLength(5)}, expected: "super"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, slug.Make(tt.input, tt.opts...))
		})
	}
}
