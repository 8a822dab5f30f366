package mailer

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

var (
	frontmatterDelimiter = []byte("---")

	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
)

// SplitFrontmatter separates YAML frontmatter from the body. Content
// without a leading "---" has no frontmatter and is returned as the body.
func SplitFrontmatter(content []byte) (frontmatter, body []byte, err error) {
	if !bytes.HasPrefix(content, frontmatterDelimiter) {
		return nil, content, nil
	}

	rest := bytes.TrimLeft(bytes.TrimPrefix(content, frontmatterDelimiter), "\r\n")
	if len(rest) == 0 {
		return nil, nil, fmt.Errorf("%w: no content after opening delimiter", ErrInvalidFrontmatter)
	}

	end := bytes.Index(rest, frontmatterDelimiter)
	if end == -1 {
		return nil, nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}

	body = rest[end+len(frontmatterDelimiter):]
	switch {
	case bytes.HasPrefix(body, []byte("\r\n")):
		body = body[2:]
	case bytes.HasPrefix(body, []byte("\n")):
		body = body[1:]
	}

	return rest[:end], body, nil
}

// ParseFrontmatter decodes the frontmatter of content into out and returns
// the remaining body. out is left untouched when there is no frontmatter.
func ParseFrontmatter(content []byte, out any) ([]byte, error) {
	front, body, err := SplitFrontmatter(content)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(front)) > 0 {
		if err := yaml.Unmarshal(front, out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}

	return body, nil
}

// MarkdownToHTML converts markdown to an HTML fragment.
func MarkdownToHTML(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert(source, &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return buf.String(), nil
}
