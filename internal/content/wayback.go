package content

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/handclass/internal/classify"
)

// DefaultWaybackURL is the archive base URL of a local OpenWayback install.
const DefaultWaybackURL = "http://localhost:8080/wayback/"

// WaybackConfig configures a Wayback provider.
type WaybackConfig struct {
	// BaseURL is prefixed to the identifier to form the archived page URL.
	BaseURL string
	// Verify issues a HEAD request before opening and fails the display
	// when the archive cannot serve the page.
	Verify  bool
	Timeout time.Duration
	Client  *http.Client

	Opener      Opener
	MinInterval time.Duration
	Panes       Panes
	Logger      *zap.Logger
}

// Wayback opens the archived copy of each item's identifier in the system
// browser.
type Wayback struct {
	launcher
	base    string
	verify  bool
	timeout time.Duration
	client  *http.Client
}

// NewWayback creates a wayback provider.
func NewWayback(cfg WaybackConfig) (*Wayback, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultWaybackURL
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	l := newLauncher(cfg.Opener, cfg.MinInterval, cfg.Panes, cfg.Logger)
	l.logger = l.logger.Named("wayback")
	return &Wayback{launcher: l, base: base, verify: cfg.Verify, timeout: timeout, client: client}, nil
}

// URL returns the archive URL for identifier.
func (w *Wayback) URL(identifier string) string { return w.base + identifier }

// Display implements classify.ContentProvider.
func (w *Wayback) Display(ctx context.Context, item classify.Item, _ classify.Mode) error {
	target := w.URL(item.Identifier)
	if w.verify {
		if err := w.check(ctx, target); err != nil {
			return err
		}
	}
	return w.open(ctx, item.Identifier, target)
}

func (w *Wayback) check(ctx context.Context, target string) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", classify.ErrContentUnavailable, target, err)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", classify.ErrContentUnavailable, target, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: %s: archive returned %s", classify.ErrContentUnavailable, target, resp.Status)
	}
	return nil
}

// Clear implements classify.ContentProvider.
func (w *Wayback) Clear() error {
	w.clear()
	return nil
}

// SupportsMode implements classify.ModeSupporter.
func (w *Wayback) SupportsMode(mode classify.Mode) bool {
	return mode == classify.ModeSingle || mode == classify.ModeLink
}
