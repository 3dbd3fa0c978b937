package content

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/handclass/internal/classify"
)

// maxNameRunes caps the identifier part of temp file names.
const maxNameRunes = 100

// BrowserConfig configures a Browser provider.
type BrowserConfig struct {
	Opener Opener
	// TempDir holds the rendered pages; empty means os.TempDir().
	TempDir string
	// MinInterval spaces out browser launches.
	MinInterval time.Duration
	// Panes, when set, receives a one-line notice per opened page.
	Panes  Panes
	Logger *zap.Logger
}

// Browser writes each item's content to a temporary HTML file and opens it
// in the system browser. The file name carries the identifier so it shows in
// the browser's title bar. Files are removed by Close.
type Browser struct {
	launcher
	dir string

	mu    sync.Mutex
	files []string
}

// NewBrowser creates a browser provider.
func NewBrowser(cfg BrowserConfig) (*Browser, error) {
	dir := cfg.TempDir
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: browser temp dir: %w", classify.ErrConfiguration, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: browser temp dir %s is not a directory", classify.ErrConfiguration, dir)
		}
	}
	l := newLauncher(cfg.Opener, cfg.MinInterval, cfg.Panes, cfg.Logger)
	l.logger = l.logger.Named("browser")
	return &Browser{launcher: l, dir: dir}, nil
}

// Display implements classify.ContentProvider.
func (b *Browser) Display(ctx context.Context, item classify.Item, _ classify.Mode) error {
	return b.ShowPage(ctx, item.Identifier, item.Content)
}

// ShowPage writes page to a new temp file named after identifier and opens
// it.
func (b *Browser) ShowPage(ctx context.Context, identifier, page string) error {
	f, err := os.CreateTemp(b.dir, "*"+TempFileSuffix(identifier))
	if err != nil {
		return fmt.Errorf("create page for %s: %w", identifier, err)
	}
	b.track(f.Name())

	_, werr := f.WriteString(page)
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("write page for %s: %w", identifier, werr)
	}
	if cerr != nil {
		return fmt.Errorf("write page for %s: %w", identifier, cerr)
	}

	return b.open(ctx, identifier, fileURL(f.Name()))
}

// Clear implements classify.ContentProvider. The system browser cannot be
// cleared; only the inline notice is.
func (b *Browser) Clear() error {
	b.clear()
	return nil
}

// SupportsMode implements classify.ModeSupporter.
func (b *Browser) SupportsMode(mode classify.Mode) bool {
	return mode == classify.ModeSingle || mode == classify.ModeLink
}

// Files returns the temp files created so far.
func (b *Browser) Files() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.files...)
}

// Close removes the temp files. Files already gone are logged and skipped.
func (b *Browser) Close() error {
	b.mu.Lock()
	files := b.files
	b.files = nil
	b.mu.Unlock()

	for _, name := range files {
		if err := os.Remove(name); err != nil {
			if os.IsNotExist(err) {
				b.logger.Debug("temp file already deleted", zap.String("path", name))
				continue
			}
			b.logger.Warn("remove temp file", zap.String("path", name), zap.Error(err))
		}
	}
	return nil
}

func (b *Browser) track(name string) {
	b.mu.Lock()
	b.files = append(b.files, name)
	b.mu.Unlock()
}

// TempFileSuffix mangles an identifier into a file name suffix: unescaped,
// with '/', '#', '*' and ' ' replaced by '_', cut to 100 characters.
func TempFileSuffix(identifier string) string {
	name, err := url.PathUnescape(identifier)
	if err != nil {
		name = identifier
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '#', '*', ' ', os.PathSeparator:
			return '_'
		}
		return r
	}, name)
	if r := []rune(name); len(r) > maxNameRunes {
		name = string(r[:maxNameRunes])
	}
	return "__" + name + ".html"
}

func fileURL(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
