// Package sanitizer cleans HTML for email bodies.
package sanitizer

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy  *bluemonday.Policy
	contentPolicy *bluemonday.Policy
	initOnce      sync.Once

	// Block boundaries that should survive as line breaks in plain text.
	lineBreakRe  = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|h[1-6]|li|tr|blockquote|pre|table|ul|ol)\s*>`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

func initPolicies() {
	initOnce.Do(func() {
		// StrictPolicy strips ALL HTML, returns plain text
		strictPolicy = bluemonday.StrictPolicy()

		// Email bodies may carry headings, tables, images and inline styles
		// but nothing executable.
		contentPolicy = bluemonday.UGCPolicy()
		contentPolicy.AllowAttrs("style").Globally()
		contentPolicy.AllowStyling()
		contentPolicy.AllowElements("center", "span", "div")
		contentPolicy.AllowAttrs("align", "width", "height", "bgcolor").Globally()
	})
}

// StripTags removes every tag from s and returns readable plain text:
// block boundaries become line breaks, entities are decoded and blank
// runs are collapsed. Used to derive the text/plain part of an email.
func StripTags(s string) string {
	initPolicies()

	s = lineBreakRe.ReplaceAllString(s, "\n")
	s = html.UnescapeString(strictPolicy.Sanitize(s))

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// SanitizeHTML keeps formatting markup suitable for an email body and drops
// anything executable.
func SanitizeHTML(s string) string {
	initPolicies()
	return contentPolicy.Sanitize(s)
}
