package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/handclass/internal/classify"
	"github.com/fyrsmithlabs/handclass/internal/config"
	"github.com/fyrsmithlabs/handclass/internal/content"
	"github.com/fyrsmithlabs/handclass/internal/docstore"
	"github.com/fyrsmithlabs/handclass/internal/logging"
)

// buildProvider creates the configured content provider. The returned store
// is non-nil only for wayback-fallback and must be closed by the caller.
func buildProvider(ctx context.Context, cfg *config.Config, buffer *content.Buffer, opener content.Opener, logger *zap.Logger) (classify.ContentProvider, docstore.Store, error) {
	if opener == nil {
		opener = &content.SystemOpener{Command: cfg.Browser.Command, Logger: logger}
	}

	switch strings.ToLower(cfg.Content.Provider) {
	case config.ProviderText:
		p, err := content.NewText(buffer)
		if err != nil {
			return nil, nil, err
		}
		return p, nil, nil

	case config.ProviderBrowser:
		p, err := newBrowser(cfg, buffer, opener, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, nil, nil

	case config.ProviderWayback:
		p, err := newWayback(cfg, buffer, opener, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, nil, nil

	case config.ProviderWaybackFallback:
		wb, err := newWayback(cfg, buffer, opener, logger)
		if err != nil {
			return nil, nil, err
		}
		pages, err := newBrowser(cfg, buffer, opener, logger)
		if err != nil {
			return nil, nil, err
		}
		store, err := docstore.Open(ctx, cfg.Fallback.StoreConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("open fallback store: %w", err)
		}
		fields := []zap.Field{zap.String("store", store.String())}
		if cfg.Fallback.DSN.IsSet() {
			fields = append(fields, zap.String("dsn", cfg.Fallback.DSN.MaskedURL()))
		}
		if cfg.Fallback.Password.IsSet() {
			fields = append(fields, logging.Secret("password", cfg.Fallback.Password))
		}
		logger.Info("fallback store opened", fields...)
		p, err := content.NewWaybackFallback(wb, pages, store)
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return p, store, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown content provider %q", classify.ErrConfiguration, cfg.Content.Provider)
}

func newBrowser(cfg *config.Config, buffer *content.Buffer, opener content.Opener, logger *zap.Logger) (*content.Browser, error) {
	return content.NewBrowser(content.BrowserConfig{
		Opener:      opener,
		TempDir:     cfg.Browser.TempDir,
		MinInterval: cfg.Browser.MinInterval.Duration(),
		Panes:       buffer,
		Logger:      logger,
	})
}

func newWayback(cfg *config.Config, buffer *content.Buffer, opener content.Opener, logger *zap.Logger) (*content.Wayback, error) {
	return content.NewWayback(content.WaybackConfig{
		BaseURL:     cfg.Wayback.URL,
		Verify:      cfg.Wayback.Verify,
		Timeout:     cfg.Wayback.Timeout.Duration(),
		Opener:      opener,
		MinInterval: cfg.Browser.MinInterval.Duration(),
		Panes:       buffer,
		Logger:      logger,
	})
}
