package content

import (
	"context"
	"fmt"
	"html"

	"github.com/fyrsmithlabs/handclass/internal/classify"
)

// DocumentSource looks up alternative text for an identifier.
type DocumentSource interface {
	Lookup(ctx context.Context, key string) (string, error)
	String() string
}

// WaybackFallback displays items from the archive and, on request, loads
// alternative text for the current item from a document store into the
// browser. It supports single mode only.
type WaybackFallback struct {
	*Wayback
	pages  *Browser
	source DocumentSource
}

// NewWaybackFallback combines an archive provider with a document source.
// Fallback pages are written and opened through pages. The caller owns the
// source and closes it.
func NewWaybackFallback(wb *Wayback, pages *Browser, source DocumentSource) (*WaybackFallback, error) {
	if wb == nil || pages == nil {
		return nil, fmt.Errorf("%w: fallback provider needs archive and browser", classify.ErrConfiguration)
	}
	if source == nil {
		return nil, fmt.Errorf("%w: fallback provider needs a document store", classify.ErrConfiguration)
	}
	return &WaybackFallback{Wayback: wb, pages: pages, source: source}, nil
}

// FetchFallback implements classify.FallbackProvider. A page is shown even
// when the lookup fails so the human sees why.
func (f *WaybackFallback) FetchFallback(ctx context.Context, item classify.Item) error {
	text, err := f.source.Lookup(ctx, item.Identifier)
	if err != nil {
		if perr := f.pages.ShowPage(ctx, item.Identifier, FailurePage(f.source.String(), item.Identifier, err)); perr != nil {
			return fmt.Errorf("%w: %w: %w", classify.ErrContentUnavailable, err, perr)
		}
		return fmt.Errorf("%w: %s: %w", classify.ErrContentUnavailable, item.Identifier, err)
	}
	return f.pages.ShowPage(ctx, item.Identifier, TextPage(text))
}

// SupportsMode implements classify.ModeSupporter.
func (f *WaybackFallback) SupportsMode(mode classify.Mode) bool {
	return mode == classify.ModeSingle
}

// Close removes the fallback pages.
func (f *WaybackFallback) Close() error {
	return f.pages.Close()
}

// TextPage wraps plain text in a UTF-8 HTML page that preserves its layout.
func TextPage(text string) string {
	return `<html><head><meta http-equiv="Content-Type" content="text/html;charset=UTF-8"></head>` +
		"<body><pre>" + html.EscapeString(text) + "</pre></body></html>"
}

// FailurePage explains a failed lookup.
func FailurePage(source, identifier string, err error) string {
	msg := fmt.Sprintf("Unable to fetch text from %s for %s.\n\n%v.\n", source, identifier, err)
	return TextPage(msg)
}
