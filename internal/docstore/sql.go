package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/fyrsmithlabs/handclass/internal/classify"
)

// SQL defaults, matching a documents table keyed by URL.
const (
	DefaultDriver        = "sqlite3"
	DefaultTable         = "documents"
	DefaultKeyColumn     = "url"
	DefaultContentColumn = "content"
)

const (
	maxOpenConns    = 4
	connMaxLifetime = 5 * time.Minute
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLStore reads documents from one table.
type SQLStore struct {
	db      *sqlx.DB
	driver  string
	table   string
	query   string
	timeout time.Duration
}

// OpenSQL opens and pings the database named by cfg.
func OpenSQL(ctx context.Context, cfg Config) (*SQLStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DefaultDriver
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: sql fallback store needs a dsn", classify.ErrConfiguration)
	}
	db, err := sqlx.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, timeout(cfg))
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s, err := NewSQLStore(db, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database. Table and column names are checked
// against a plain identifier pattern since they are interpolated.
func NewSQLStore(db *sqlx.DB, cfg Config) (*SQLStore, error) {
	table := orDefault(cfg.Table, DefaultTable)
	keyCol := orDefault(cfg.KeyColumn, DefaultKeyColumn)
	contentCol := orDefault(cfg.ContentColumn, DefaultContentColumn)
	for _, ident := range []string{table, keyCol, contentCol} {
		if !identPattern.MatchString(ident) {
			return nil, fmt.Errorf("%w: invalid sql identifier %q", classify.ErrConfiguration, ident)
		}
	}

	query := db.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1", contentCol, table, keyCol))
	return &SQLStore{
		db:      db,
		driver:  db.DriverName(),
		table:   table,
		query:   query,
		timeout: timeout(cfg),
	}, nil
}

// Lookup implements Store.
func (s *SQLStore) Lookup(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var text sql.NullString
	if err := s.db.GetContext(ctx, &text, s.query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return "", fmt.Errorf("query %s: %w", s.table, err)
	}
	return text.String, nil
}

// String implements Store.
func (s *SQLStore) String() string {
	return fmt.Sprintf("%s table %s", s.driver, s.table)
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
