package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Output targets understood by Config.Path besides file paths.
const (
	OutputDiscard = ""
	OutputStdout  = "stdout"
	OutputStderr  = "stderr"
)

// Encodings accepted by Config.Format.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// TraceLevel sits below Debug and records per-keystroke detail.
const TraceLevel = zapcore.Level(-2)

// Config holds logging configuration.
type Config struct {
	Level  string            `koanf:"level"`
	Format string            `koanf:"format"`
	Path   string            `koanf:"path"`
	Caller bool              `koanf:"caller"`
	Fields map[string]string `koanf:"fields"`
}

// NewDefaultConfig returns config with defaults suited to an interactive
// terminal session: info level, JSON lines, output discarded.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: FormatJSON,
		Path:   OutputDiscard,
		Fields: map[string]string{
			"service": "handclass",
		},
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if _, err := LevelFromString(c.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	if c.Format != FormatJSON && c.Format != FormatConsole {
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	for k := range c.Fields {
		if k == "" {
			return fmt.Errorf("field key cannot be empty")
		}
	}
	return nil
}

// ZapLevel returns the parsed level, or Info when Level is invalid.
func (c *Config) ZapLevel() zapcore.Level {
	l, err := LevelFromString(c.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// LevelFromString parses zap level names plus "trace", ignoring case.
func LevelFromString(level string) (zapcore.Level, error) {
	if strings.EqualFold(level, "trace") {
		return TraceLevel, nil
	}
	return zapcore.ParseLevel(strings.ToLower(level))
}
