package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/handclass/internal/classify"
	"github.com/fyrsmithlabs/handclass/internal/telemetry"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "HANDCLASS_"
)

// DefaultPaths lists the config files tried, in order, when no path is given.
func DefaultPaths() []string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(dir, "handclass", "config.yaml"),
		filepath.Join(dir, "handclass", "config.toml"),
	}
}

// Load loads configuration from a file, then overrides with environment
// variables, applies defaults and validates.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (HANDCLASS_SESSION_LABELS, HANDCLASS_OUTPUT_PATH, etc.)
//  2. Config file (YAML, or TOML when the name ends in .toml)
//  3. Hardcoded defaults
//
// An explicit configPath must exist. With an empty configPath the first of
// DefaultPaths that exists is used, and none is fine.
//
// # Environment Variable Mapping
//
// The prefix is stripped and the rest split on the first underscore:
//
//	HANDCLASS_SESSION_LABELS=news,blog,other -> session.labels
//	HANDCLASS_FALLBACK_KEY_COLUMN=uri        -> fallback.key_column
//	HANDCLASS_LOGGING_PATH=/tmp/handclass.log -> logging.path
func Load(configPath string) (*Config, error) {
	cfg, err := load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadUnvalidated is Load without the final validation, for callers that
// apply command-line flags before validating.
func LoadUnvalidated(configPath string) (*Config, error) {
	return load(configPath)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	path, explicit := configPath, configPath != ""
	if !explicit {
		for _, p := range DefaultPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path != "" {
		if err := loadFile(k, path); err != nil {
			if !explicit && errors.Is(err, os.ErrNotExist) {
				path = ""
			} else {
				return nil, err
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Fields absent from every source keep the telemetry defaults.
	cfg := Config{Telemetry: *telemetry.NewDefaultConfig()}
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %w", classify.ErrConfiguration, err)
	}
	cfg.Session.previousSet = k.Exists("session.previous")

	applyDefaults(&cfg)
	return &cfg, nil
}

// envKey maps HANDCLASS_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func loadFile(k *koanf.Koanf, path string) error {
	// Open once and validate the descriptor to avoid a stat/open race.
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return fmt.Errorf("%w: config file validation failed: %w", classify.ErrConfiguration, err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var parser koanf.Parser = yaml.Parser()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		parser = TOMLParser()
	}
	if err := k.Load(rawbytes.Provider(content), parser); err != nil {
		return fmt.Errorf("%w: failed to load config file %s: %w", classify.ErrConfiguration, path, err)
	}
	return nil
}

// validateConfigFileProperties checks file type, permissions and size.
func validateConfigFileProperties(info os.FileInfo) error {
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", info.Name())
	}

	// The file may hold store credentials; others must not be able to
	// rewrite it. Skip on Windows (different permission model).
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm&0o022 != 0 {
			return fmt.Errorf("insecure config file permissions: %v (must not be group or world writable)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}
