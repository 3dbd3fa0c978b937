// Package config provides configuration loading for handclass.
//
// Configuration comes from defaults, an optional YAML or TOML file,
// HANDCLASS_* environment variables and finally command-line flags, each
// layer overriding the one before.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/handclass/internal/classify"
	"github.com/fyrsmithlabs/handclass/internal/content"
	"github.com/fyrsmithlabs/handclass/internal/delimited"
	"github.com/fyrsmithlabs/handclass/internal/docstore"
	"github.com/fyrsmithlabs/handclass/internal/logging"
	"github.com/fyrsmithlabs/handclass/internal/render"
	"github.com/fyrsmithlabs/handclass/internal/telemetry"
)

// Content provider names.
const (
	ProviderText            = "text"
	ProviderBrowser         = "browser"
	ProviderWayback         = "wayback"
	ProviderWaybackFallback = "wayback-fallback"
)

// Config holds the complete handclass configuration.
type Config struct {
	Session  SessionConfig  `koanf:"session"`
	Input    InputConfig    `koanf:"input"`
	Output   OutputConfig   `koanf:"output"`
	Content  ContentConfig  `koanf:"content"`
	Browser  BrowserConfig  `koanf:"browser"`
	Wayback  WaybackConfig  `koanf:"wayback"`
	Fallback FallbackConfig `koanf:"fallback"`
	Logging  logging.Config `koanf:"logging"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	UI       UIConfig       `koanf:"ui"`

	Telemetry telemetry.Config `koanf:"telemetry"`
}

// SessionConfig holds the labeling task.
type SessionConfig struct {
	Labels []string `koanf:"labels"`
	Mode   string   `koanf:"mode"`
	// Previous is the number of items classified in earlier runs.
	Previous int `koanf:"previous"`

	previousSet bool
}

// SetPrevious records an explicit previous count.
func (s *SessionConfig) SetPrevious(n int) {
	s.Previous = n
	s.previousSet = true
}

// InputConfig describes the item file.
type InputConfig struct {
	Path    string `koanf:"path"`
	Dialect string `koanf:"dialect"`
	Header  bool   `koanf:"header"`
	// Skip drops records already classified in an earlier run.
	Skip int `koanf:"skip"`
}

// OutputConfig describes the result file. An empty or "-" path is stdout.
type OutputConfig struct {
	Path    string `koanf:"path"`
	Dialect string `koanf:"dialect"`
	Append  bool   `koanf:"append"`
}

// ContentConfig selects how items are shown.
type ContentConfig struct {
	Provider string `koanf:"provider"`
	// Format applies to inline text: plain, html or markdown.
	Format string `koanf:"format"`
	// Style is the glamour style for markdown.
	Style string `koanf:"style"`
	// Wrap fixes the pane text width; 0 follows the terminal.
	Wrap int `koanf:"wrap"`
}

// BrowserConfig configures the system browser.
type BrowserConfig struct {
	Command     string   `koanf:"command"`
	TempDir     string   `koanf:"temp_dir"`
	MinInterval Duration `koanf:"min_interval"`
}

// WaybackConfig configures the web archive.
type WaybackConfig struct {
	URL     string   `koanf:"url"`
	Verify  bool     `koanf:"verify"`
	Timeout Duration `koanf:"timeout"`
}

// FallbackConfig configures the document store behind the fallback key.
type FallbackConfig struct {
	Kind string `koanf:"kind"`

	Driver        string `koanf:"driver"`
	DSN           Secret `koanf:"dsn"`
	Table         string `koanf:"table"`
	KeyColumn     string `koanf:"key_column"`
	ContentColumn string `koanf:"content_column"`

	Addr      string `koanf:"addr"`
	Password  Secret `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
	Field     string `koanf:"field"`

	Timeout Duration `koanf:"timeout"`
}

// StoreConfig converts to the docstore form.
func (f FallbackConfig) StoreConfig() docstore.Config {
	return docstore.Config{
		Kind:          f.Kind,
		Driver:        f.Driver,
		DSN:           f.DSN.Value(),
		Table:         f.Table,
		KeyColumn:     f.KeyColumn,
		ContentColumn: f.ContentColumn,
		Addr:          f.Addr,
		Password:      f.Password.Value(),
		DB:            f.DB,
		KeyPrefix:     f.KeyPrefix,
		Field:         f.Field,
		Timeout:       f.Timeout.Duration(),
	}
}

// MetricsConfig configures the status server.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host"`
	Port    int    `koanf:"port"`
}

// Addr returns host:port.
func (m MetricsConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// UIConfig selects the front-end.
type UIConfig struct {
	// Plain uses the line-oriented console instead of the full-screen UI.
	Plain bool `koanf:"plain"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Telemetry: *telemetry.NewDefaultConfig()}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if len(cfg.Session.Labels) == 0 {
		cfg.Session.Labels = []string{"0", "1"}
	}
	if cfg.Session.Mode == "" {
		cfg.Session.Mode = classify.ModeSingle.String()
	}

	if cfg.Input.Dialect == "" {
		cfg.Input.Dialect = delimited.DefaultDialect
	}
	if cfg.Output.Dialect == "" {
		cfg.Output.Dialect = delimited.DefaultDialect
	}

	if cfg.Content.Provider == "" {
		cfg.Content.Provider = ProviderText
	}
	if cfg.Content.Format == "" {
		cfg.Content.Format = render.FormatPlain
	}
	if cfg.Content.Style == "" {
		cfg.Content.Style = render.DefaultStyle
	}

	if cfg.Wayback.URL == "" {
		cfg.Wayback.URL = content.DefaultWaybackURL
	}
	if cfg.Wayback.Timeout == 0 {
		cfg.Wayback.Timeout = Duration(5 * time.Second)
	}

	if cfg.Fallback.Kind == docstore.KindSQL && cfg.Fallback.Driver == "" {
		cfg.Fallback.Driver = docstore.DefaultDriver
	}
	if cfg.Fallback.Timeout == 0 {
		cfg.Fallback.Timeout = Duration(docstore.DefaultTimeout)
	}

	defaults := logging.NewDefaultConfig()
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaults.Format
	}
	if cfg.Logging.Fields == nil {
		cfg.Logging.Fields = defaults.Fields
	}

	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "127.0.0.1"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9477
	}

	cfg.Telemetry.ApplyDefaults()
}

// EffectivePrevious is the previous count used for progress: the explicit
// value when one was given, otherwise the number of skipped records.
func (c *Config) EffectivePrevious() int {
	if c.Session.previousSet || c.Session.Previous != 0 {
		return c.Session.Previous
	}
	return c.Input.Skip
}

// AppendOutput reports whether the results file is extended rather than
// truncated. A resumed run (skip or previous > 0) always appends so rows
// from earlier runs are kept.
func (c *Config) AppendOutput() bool {
	return c.Output.Append || c.Input.Skip > 0 || c.EffectivePrevious() > 0
}

// ClassifyMode parses Session.Mode.
func (c *Config) ClassifyMode() (classify.Mode, error) {
	return classify.ParseMode(c.Session.Mode)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := classify.NewLabelSet(c.Session.Labels); err != nil {
		return err
	}
	mode, err := c.ClassifyMode()
	if err != nil {
		return err
	}
	if c.Session.Previous < 0 {
		return invalid("session.previous must be >= 0, got %d", c.Session.Previous)
	}
	if c.Input.Skip < 0 {
		return invalid("input.skip must be >= 0, got %d", c.Input.Skip)
	}
	if _, err := delimited.LookupDialect(c.Input.Dialect); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if _, err := delimited.LookupDialect(c.Output.Dialect); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := c.validateContent(mode); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("%w: logging: %w", classify.ErrConfiguration, err)
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return invalid("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}
	return c.Telemetry.Validate()
}

func (c *Config) validateContent(mode classify.Mode) error {
	if _, err := render.New(render.Options{Format: c.Content.Format, Style: c.Content.Style}); err != nil {
		return err
	}
	if c.Content.Wrap < 0 {
		return invalid("content.wrap must be >= 0, got %d", c.Content.Wrap)
	}

	switch strings.ToLower(c.Content.Provider) {
	case ProviderText:
		return nil
	case ProviderBrowser, ProviderWayback:
		if mode == classify.ModePair {
			return invalid("%s provider cannot show pairs", c.Content.Provider)
		}
		return nil
	case ProviderWaybackFallback:
		if mode != classify.ModeSingle {
			return invalid("%s provider supports single mode only", c.Content.Provider)
		}
		return c.validateFallback()
	}
	return invalid("unknown content provider %q", c.Content.Provider)
}

func (c *Config) validateFallback() error {
	switch strings.ToLower(c.Fallback.Kind) {
	case docstore.KindSQL:
		if !c.Fallback.DSN.IsSet() {
			return invalid("fallback.dsn is required for the sql store")
		}
	case docstore.KindRedis:
		if c.Fallback.Addr == "" {
			return invalid("fallback.addr is required for the redis store")
		}
		if c.Fallback.DB < 0 {
			return invalid("fallback.db must be >= 0, got %d", c.Fallback.DB)
		}
	case "":
		return invalid("%s provider needs fallback.kind (sql or redis)", ProviderWaybackFallback)
	default:
		return invalid("unknown fallback.kind %q", c.Fallback.Kind)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", classify.ErrConfiguration, fmt.Sprintf(format, args...))
}
