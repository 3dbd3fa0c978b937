// Package render turns item content into terminal text for inline panes.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/handclass/internal/classify"
)

// Format names.
const (
	FormatPlain    = "plain"
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// Renderer converts raw item content into displayable text no wider than
// width columns. A width of zero disables wrapping.
type Renderer interface {
	Render(identifier, content string, width int) (string, error)
}

// Options configures New.
type Options struct {
	Format string
	// Style is a glamour style name or path; markdown only.
	Style string
}

// New returns the renderer for opts.Format. The empty format is plain.
func New(opts Options) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", FormatPlain:
		return Plain{}, nil
	case FormatHTML:
		return HTML{}, nil
	case FormatMarkdown, "md":
		return NewMarkdown(opts.Style), nil
	}
	return nil, fmt.Errorf("%w: unknown content format %q", classify.ErrConfiguration, opts.Format)
}

// Plain shows content as-is, wrapped to the pane width.
type Plain struct{}

// Render implements Renderer.
func (Plain) Render(_, content string, width int) (string, error) {
	return wrap(normalize(content), width), nil
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}
