package content

import (
	"sync"

	"github.com/fyrsmithlabs/handclass/internal/render"
)

// Pane is one rendered item slot.
type Pane struct {
	Identifier string
	Raw        string
	Text       string
}

// Link is the source and target shown in link mode.
type Link struct {
	Source string
	Target string
}

// View is a consistent copy of a Buffer.
type View struct {
	Panes   []Pane
	Link    *Link
	Notice  string
	Version uint64
}

// Panes receives the content a provider wants displayed inline.
type Panes interface {
	Show(panes ...Pane) error
	Clear()
}

// Buffer is the in-memory display surface that front-ends draw from. It
// implements Panes and classify.LinkPane. Every change bumps Version.
type Buffer struct {
	mu       sync.RWMutex
	renderer render.Renderer
	width    int
	panes    []Pane
	link     *Link
	notice   string
	version  uint64
}

// NewBuffer creates a buffer rendering with r. A nil r shows content as-is.
func NewBuffer(r render.Renderer) *Buffer {
	if r == nil {
		r = render.Plain{}
	}
	return &Buffer{renderer: r}
}

// Show replaces the panes, rendering each at the current width. On a render
// error nothing changes.
func (b *Buffer) Show(panes ...Pane) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Pane, len(panes))
	for i, p := range panes {
		if p.Text == "" && p.Raw != "" {
			text, err := b.renderer.Render(p.Identifier, p.Raw, b.width)
			if err != nil {
				return err
			}
			p.Text = text
		}
		out[i] = p
	}
	b.panes = out
	b.notice = ""
	b.version++
	return nil
}

// SetWidth re-renders the panes for a new pane width.
func (b *Buffer) SetWidth(width int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width == b.width {
		return nil
	}
	b.width = width
	for i, p := range b.panes {
		if p.Raw == "" {
			continue
		}
		text, err := b.renderer.Render(p.Identifier, p.Raw, width)
		if err != nil {
			return err
		}
		b.panes[i].Text = text
	}
	b.version++
	return nil
}

// Clear empties the panes.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.panes = nil
	b.version++
}

// ShowLink implements classify.LinkPane.
func (b *Buffer) ShowLink(source, target string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.link = &Link{Source: source, Target: target}
	b.version++
}

// ClearLink implements classify.LinkPane.
func (b *Buffer) ClearLink() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.link = nil
	b.version++
}

// SetNotice sets a one-line message shown with the panes, such as a display
// error. The next Show clears it.
func (b *Buffer) SetNotice(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = msg
	b.version++
}

// Snapshot returns a copy of the current state.
func (b *Buffer) Snapshot() View {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v := View{
		Panes:   append([]Pane(nil), b.panes...),
		Notice:  b.notice,
		Version: b.version,
	}
	if b.link != nil {
		l := *b.link
		v.Link = &l
	}
	return v
}
