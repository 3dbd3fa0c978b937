package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/handclass/internal/classify"
)

// isolate points the user config dir at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	return dir
}

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_NoFile(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Session.Labels, cfg.Session.Labels)
}

func TestLoad_YAML(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "handclass.yaml", `
session:
  labels: [news, blog, shop]
  mode: link
input:
  path: items.tsv
  header: true
  skip: 12
output:
  path: results.tsv
  append: true
content:
  provider: browser
browser:
  command: firefox --new-tab
  min_interval: 500ms
logging:
  level: debug
  path: stderr
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"news", "blog", "shop"}, cfg.Session.Labels)
	assert.Equal(t, "link", cfg.Session.Mode)
	assert.True(t, cfg.Input.Header)
	assert.Equal(t, 12, cfg.Input.Skip)
	assert.Equal(t, 12, cfg.EffectivePrevious())
	assert.True(t, cfg.Output.Append)
	assert.Equal(t, "firefox --new-tab", cfg.Browser.Command)
	assert.Equal(t, 500*time.Millisecond, cfg.Browser.MinInterval.Duration())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "stderr", cfg.Logging.Path)
	assert.Equal(t, "json", cfg.Logging.Format, "defaults fill the rest")
}

func TestLoad_ExplicitPreviousZero(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "c.yaml", "session:\n  previous: 0\ninput:\n  skip: 7\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.EffectivePrevious())
}

func TestLoad_TOML(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "handclass.toml", `
[session]
labels = ["yes", "no"]
mode = "single"

[content]
provider = "wayback-fallback"

[wayback]
url = "http://archive.local/wb/"
verify = true
timeout = "2s"

[fallback]
kind = "sql"
driver = "postgres"
dsn = "postgres://u:p@localhost/docs?sslmode=disable"
table = "conversions"
key_column = "uri"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"yes", "no"}, cfg.Session.Labels)
	assert.Equal(t, ProviderWaybackFallback, cfg.Content.Provider)
	assert.True(t, cfg.Wayback.Verify)
	assert.Equal(t, 2*time.Second, cfg.Wayback.Timeout.Duration())
	assert.Equal(t, "postgres", cfg.Fallback.Driver)
	assert.Equal(t, "postgres://u:p@localhost/docs?sslmode=disable", cfg.Fallback.DSN.Value())
	assert.Equal(t, "[REDACTED]", cfg.Fallback.DSN.String())
	assert.Equal(t, "uri", cfg.Fallback.KeyColumn)
}

func TestLoad_Telemetry(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "t.yaml", `
telemetry:
  enabled: true
  protocol: http/protobuf
  endpoint: http://localhost:4318
  metrics_interval: 30s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "http/protobuf", cfg.Telemetry.Protocol)
	assert.Equal(t, 30*time.Second, cfg.Telemetry.MetricsInterval)
	assert.True(t, cfg.Telemetry.Insecure, "unset fields keep their defaults")
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRate)

	t.Setenv("HANDCLASS_TELEMETRY_ENDPOINT", "otel.example.com:4317")
	_, err = Load(path)
	assert.ErrorIs(t, err, classify.ErrConfiguration)
	assert.ErrorContains(t, err, "insecure export")
}

func TestLoad_DefaultPath(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, filepath.Join("handclass", "config.yaml"), "session:\n  labels: [a, b]\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cfg.Session.Labels)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "c.yaml", "session:\n  labels: [a, b]\noutput:\n  path: from-file.tsv\n")

	t.Setenv("HANDCLASS_SESSION_LABELS", "x,y,z")
	t.Setenv("HANDCLASS_OUTPUT_PATH", "from-env.tsv")
	t.Setenv("HANDCLASS_FALLBACK_KEY_COLUMN", "uri")
	t.Setenv("HANDCLASS_METRICS_ENABLED", "true")
	t.Setenv("HANDCLASS_METRICS_PORT", "9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, cfg.Session.Labels)
	assert.Equal(t, "from-env.tsv", cfg.Output.Path)
	assert.Equal(t, "uri", cfg.Fallback.KeyColumn)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9999, cfg.Metrics.Port)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "session.labels", envKey("HANDCLASS_SESSION_LABELS"))
	assert.Equal(t, "fallback.content_column", envKey("HANDCLASS_FALLBACK_CONTENT_COLUMN"))
	assert.Equal(t, "debug", envKey("HANDCLASS_DEBUG"))
}

func TestLoad_Errors(t *testing.T) {
	dir := isolate(t)

	t.Run("explicit missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfig(t, dir, "bad.yaml", "session: [unclosed\n")
		_, err := Load(path)
		assert.ErrorIs(t, err, classify.ErrConfiguration)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeConfig(t, dir, "one-label.yaml", "session:\n  labels: [only]\n")
		_, err := Load(path)
		assert.ErrorIs(t, err, classify.ErrConfiguration)
	})

	t.Run("too large", func(t *testing.T) {
		path := writeConfig(t, dir, "big.yaml", "# "+strings.Repeat("x", maxConfigFileSize)+"\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})

	t.Run("world writable", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("permission model differs")
		}
		path := writeConfig(t, dir, "open.yaml", "session:\n  mode: single\n")
		require.NoError(t, os.Chmod(path, 0o666))
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insecure config file permissions")
	})
}

func TestLoadUnvalidated(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "c.yaml", "session:\n  labels: [only]\n")

	cfg, err := LoadUnvalidated(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, cfg.Session.Labels)
	assert.Error(t, cfg.Validate())
}

func TestTOMLParser_RoundTrip(t *testing.T) {
	p := TOMLParser()
	m, err := p.Unmarshal([]byte("[ui]\nplain = true\n"))
	require.NoError(t, err)
	out, err := p.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(out), "plain = true")
}
