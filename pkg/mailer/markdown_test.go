package mailer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testMeta struct {
	Name    string `yaml:"name"`
	Subject string `yaml:"subject"`
	Primary bool   `yaml:"primary"`
}

func TestParseFrontmatter_WithFrontmatter(t *testing.T) {
	t.Parallel()

	content := []byte(`---
name: Follow-up
subject: "Following up, {{client_name}}"
primary: true
---
# Hello

Body.
`)

	var meta testMeta
	body, err := ParseFrontmatter(content, &meta)
	require.NoError(t, err)
	require.Equal(t, "Follow-up", meta.Name)
	require.Equal(t, "Following up, {{client_name}}", meta.Subject)
	require.True(t, meta.Primary)
	require.Equal(t, "# Hello\n\nBody.\n", string(body))
}

func TestParseFrontmatter_WithoutFrontmatter(t *testing.T) {
	t.Parallel()

	content := []byte("# Just markdown")

	var meta testMeta
	body, err := ParseFrontmatter(content, &meta)
	require.NoError(t, err)
	require.Empty(t, meta.Name)
	require.Equal(t, string(content), string(body))
}

func TestParseFrontmatter_EmptyFrontmatter(t *testing.T) {
	t.Parallel()

	var meta testMeta
	body, err := ParseFrontmatter([]byte("---\n---\nBody content here."), &meta)
	require.NoError(t, err)
	require.Equal(t, "Body content here.", string(body))
}

func TestParseFrontmatter_CRLF(t *testing.T) {
	t.Parallel()

	var meta testMeta
	body, err := ParseFrontmatter([]byte("---\r\nname: X\r\n---\r\nBody"), &meta)
	require.NoError(t, err)
	require.Equal(t, "X", meta.Name)
	require.Equal(t, "Body", string(body))
}

func TestParseFrontmatter_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "missing closing delimiter", content: "---\nname: X\nBody"},
		{name: "only opening delimiter", content: "---"},
		{name: "invalid yaml", content: "---\nname: [unclosed\n---\nBody"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var meta testMeta
			_, err := ParseFrontmatter([]byte(tt.content), &meta)
			require.ErrorIs(t, err, ErrInvalidFrontmatter)
		})
	}
}

func TestMarkdownToHTML(t *testing.T) {
	t.Parallel()

	t.Run("renders markdown", func(t *testing.T) {
		t.Parallel()

		out, err := MarkdownToHTML([]byte("Hi **{{client_name}}**"))
		require.NoError(t, err)
		require.Equal(t, "<p>Hi <strong>{{client_name}}</strong></p>\n", out)
	})

	t.Run("passes raw html through", func(t *testing.T) {
		t.Parallel()

		out, err := MarkdownToHTML([]byte("<div>raw</div>\n"))
		require.NoError(t, err)
		require.Contains(t, out, "<div>raw</div>")
	})

	t.Run("renders gfm tables", func(t *testing.T) {
		t.Parallel()

		out, err := MarkdownToHTML([]byte("| a | b |\n|---|---|\n| 1 | 2 |\n"))
		require.NoError(t, err)
		require.Contains(t, out, "<table>")
	})
}
