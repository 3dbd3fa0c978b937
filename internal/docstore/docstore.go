// Package docstore provides the document stores that hold fallback text for
// items an archive cannot show. Stores are opened and closed explicitly by
// the caller.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/handclass/internal/classify"
)

// ErrNotFound is returned when no document matches the key.
var ErrNotFound = errors.New("document not found")

// Store looks up document text by key.
type Store interface {
	Lookup(ctx context.Context, key string) (string, error)
	// String names the store for messages. It never includes credentials.
	String() string
	Close() error
}

// Store kinds.
const (
	KindSQL   = "sql"
	KindRedis = "redis"
)

// DefaultTimeout bounds connection checks and lookups.
const DefaultTimeout = 5 * time.Second

// Config selects and configures a store.
type Config struct {
	Kind string

	// SQL
	Driver        string
	DSN           string
	Table         string
	KeyColumn     string
	ContentColumn string

	// Redis
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// Field reads a hash field instead of a plain string value.
	Field string

	Timeout time.Duration
}

// Open connects the configured store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Kind) {
	case KindSQL:
		return OpenSQL(ctx, cfg)
	case KindRedis:
		return OpenRedis(ctx, cfg)
	case "":
		return nil, fmt.Errorf("%w: fallback store kind is required", classify.ErrConfiguration)
	}
	return nil, fmt.Errorf("%w: unknown fallback store kind %q", classify.ErrConfiguration, cfg.Kind)
}

func timeout(cfg Config) time.Duration {
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}
	return DefaultTimeout
}
