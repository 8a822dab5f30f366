package i18n

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// M is a shorthand for placeholder values.
type M map[string]any

var placeholderRe = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// ReplacePlaceholders replaces every {{name}} in template with the value
// stored under name. Placeholders without a value stay unchanged.
// Substitution is single-pass: values are never re-scanned, so a value that
// itself contains {{...}} is inserted literally.
func ReplacePlaceholders(template string, placeholders M) string {
	if len(placeholders) == 0 {
		return template
	}

	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := match[2 : len(match)-2]
		value, ok := placeholders[name]
		if !ok {
			return match
		}
		return fmt.Sprint(value)
	})
}

// ExtractPlaceholders returns the sorted, de-duplicated placeholder names
// found in the given texts.
func ExtractPlaceholders(texts ...string) []string {
	seen := make(map[string]struct{})
	for _, text := range texts {
		for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
			seen[m[1]] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ProtectPlaceholders swaps every {{name}} in s for an alphanumeric token
// that HTML sanitizers and markdown renderers leave alone, including inside
// URL attributes. The returned restore func puts the placeholders back.
// Tokens never collide with text already present in s.
func ProtectPlaceholders(s string) (string, func(string) string) {
	if !placeholderRe.MatchString(s) {
		return s, func(v string) string { return v }
	}

	mark := "phx"
	for strings.Contains(s, mark) {
		mark += "x"
	}

	tokens := make(map[string]string)
	var pairs []string
	protected := placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		tok, ok := tokens[match]
		if !ok {
			tok = mark + strconv.Itoa(len(tokens)) + mark
			tokens[match] = tok
			pairs = append(pairs, tok, match)
		}
		return tok
	})

	return protected, strings.NewReplacer(pairs...).Replace
}
