package content

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/handclass/internal/classify"
)

// Text shows item content inline in a Panes surface. It supports every mode.
type Text struct {
	panes Panes
}

// NewText creates a text provider drawing into panes.
func NewText(panes Panes) (*Text, error) {
	if panes == nil {
		return nil, fmt.Errorf("%w: text provider needs a pane surface", classify.ErrConfiguration)
	}
	return &Text{panes: panes}, nil
}

// Display implements classify.ContentProvider.
func (t *Text) Display(_ context.Context, item classify.Item, mode classify.Mode) error {
	panes := []Pane{{Identifier: item.Identifier, Raw: item.Content}}
	if mode == classify.ModePair {
		panes = append(panes, Pane{Identifier: item.SecondaryIdentifier, Raw: item.SecondaryContent})
	}
	if err := t.panes.Show(panes...); err != nil {
		return fmt.Errorf("render %s: %w", item.Identifier, err)
	}
	return nil
}

// Clear implements classify.ContentProvider.
func (t *Text) Clear() error {
	t.panes.Clear()
	return nil
}

// SupportsMode implements classify.ModeSupporter.
func (t *Text) SupportsMode(classify.Mode) bool { return true }
