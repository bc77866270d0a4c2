package content

import (
	"bytes"
	"fmt"

	"github.com/goliatone/go-slug"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Renderer turns blog markdown into HTML. Raw HTML in the source is
// escaped. A Renderer is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

func (r *Renderer) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// Slug returns explicit normalized, or the title normalized when explicit
// is empty.
func Slug(title, explicit string) (string, error) {
	value := explicit
	if value == "" {
		value = title
	}
	s, err := slug.Normalize(value)
	if err != nil {
		return "", fmt.Errorf("failed to build slug from %q: %w", value, err)
	}
	if s == "" || !slug.IsValid(s) {
		return "", fmt.Errorf("invalid slug %q", s)
	}
	return s, nil
}
