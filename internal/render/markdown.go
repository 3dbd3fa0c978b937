package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// DefaultStyle is the glamour style used when none is configured.
const DefaultStyle = "dark"

// Markdown renders markdown content with glamour. Renderers are cached per
// width since the TUI re-renders on every resize.
type Markdown struct {
	style string

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewMarkdown creates a markdown renderer. style may be a builtin glamour
// style ("dark", "light", "notty", "ascii") or a JSON style path.
func NewMarkdown(style string) *Markdown {
	if style == "" {
		style = DefaultStyle
	}
	return &Markdown{style: style, renderers: make(map[int]*glamour.TermRenderer)}
}

// Render implements Renderer.
func (m *Markdown) Render(_, content string, width int) (string, error) {
	r, err := m.renderer(width)
	if err != nil {
		return "", err
	}
	out, err := r.Render(normalize(content))
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.Trim(out, "\n"), nil
}

func (m *Markdown) renderer(width int) (*glamour.TermRenderer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.renderers[width]; ok {
		return r, nil
	}
	opts := []glamour.TermRendererOption{glamour.WithStylePath(m.style)}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("markdown style %q: %w", m.style, err)
	}
	m.renderers[width] = r
	return r, nil
}
