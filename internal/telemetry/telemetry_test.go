package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/fyrsmithlabs/handclass/internal/classify"
)

// restoreGlobals puts the otel globals back after New replaced them.
func restoreGlobals(t *testing.T) {
	t.Helper()
	tp, mp, prop := otel.GetTracerProvider(), otel.GetMeterProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
		otel.SetTextMapPropagator(prop)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "disabled skips checks", mutate: func(c *Config) { c.Endpoint = "" }},
		{name: "enabled defaults", mutate: func(c *Config) { c.Enabled = true }},
		{
			name:    "missing endpoint",
			mutate:  func(c *Config) { c.Enabled = true; c.Endpoint = "" },
			wantErr: "endpoint is required",
		},
		{
			name:    "missing service name",
			mutate:  func(c *Config) { c.Enabled = true; c.ServiceName = "" },
			wantErr: "service_name is required",
		},
		{
			name:    "unknown protocol",
			mutate:  func(c *Config) { c.Enabled = true; c.Protocol = "udp" },
			wantErr: "unknown telemetry.protocol",
		},
		{
			name:    "insecure remote",
			mutate:  func(c *Config) { c.Enabled = true; c.Endpoint = "collector.example.com:4317" },
			wantErr: "insecure export",
		},
		{
			name: "secure remote",
			mutate: func(c *Config) {
				c.Enabled = true
				c.Endpoint = "collector.example.com:4317"
				c.Insecure = false
			},
		},
		{
			name:    "sampling rate out of range",
			mutate:  func(c *Config) { c.Enabled = true; c.SamplingRate = 1.5 },
			wantErr: "sampling_rate",
		},
		{
			name:    "zero interval",
			mutate:  func(c *Config) { c.Enabled = true; c.MetricsInterval = 0 },
			wantErr: "metrics_interval",
		},
		{
			name:    "zero shutdown timeout",
			mutate:  func(c *Config) { c.Enabled = true; c.ShutdownTimeout = 0 },
			wantErr: "shutdown_timeout",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, classify.ErrConfiguration)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{Enabled: true, SamplingRate: 0.5}
	cfg.ApplyDefaults()
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.Equal(t, ProtocolGRPC, cfg.Protocol)
	assert.Equal(t, "handclass", cfg.ServiceName)
	assert.Equal(t, 0.5, cfg.SamplingRate)
	assert.Equal(t, 15*time.Second, cfg.MetricsInterval)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestIsLocalEndpoint(t *testing.T) {
	for endpoint, want := range map[string]bool{
		"localhost:4317":         true,
		"127.0.0.1:4318":         true,
		"[::1]:4317":             true,
		"http://localhost:4318":  true,
		"otel.example.com:4317":  false,
		"https://10.0.0.5:4318":  false,
		"localhost.example:4317": false,
	} {
		cfg := &Config{Endpoint: endpoint}
		assert.Equal(t, want, cfg.isLocalEndpoint(), endpoint)
	}
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "localhost:4318", stripScheme("http://localhost:4318"))
	assert.Equal(t, "otel.example.com:443", stripScheme("https://otel.example.com:443"))
	assert.Equal(t, "localhost:4317", stripScheme("localhost:4317"))
}

func TestNew_Disabled(t *testing.T) {
	restoreGlobals(t)
	before := otel.GetTracerProvider()

	tel, err := New(t.Context(), nil, "test")
	require.NoError(t, err)
	assert.False(t, tel.Enabled())
	assert.Equal(t, before, tel.TracerProvider())
	assert.NotNil(t, tel.MeterProvider())
	assert.NoError(t, tel.ForceFlush(t.Context()))
	assert.NoError(t, tel.Shutdown(t.Context()))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Protocol = "carrier-pigeon"
	_, err := New(t.Context(), cfg, "test")
	assert.ErrorIs(t, err, classify.ErrConfiguration)
}

type rowSink struct{ rows []classify.Row }

func (s *rowSink) WriteRow(row classify.Row) error {
	s.rows = append(s.rows, row)
	return nil
}

type nopProvider struct{}

func (nopProvider) Display(context.Context, classify.Item, classify.Mode) error { return nil }
func (nopProvider) Clear() error                                               { return nil }

func TestNew_ExportsSessionSpans(t *testing.T) {
	restoreGlobals(t)
	exporter := tracetest.NewInMemoryExporter()
	reader := sdkmetric.NewManualReader()

	cfg := NewDefaultConfig()
	cfg.Enabled = true
	tel, err := New(t.Context(), cfg, "1.2.3", WithSpanExporter(exporter), WithMetricReader(reader))
	require.NoError(t, err)
	require.True(t, tel.Enabled())

	sess, err := classify.NewSession(classify.Config{
		Records:  []classify.Record{{"urlA", "a"}},
		Labels:   []string{"0", "1"},
		Sink:     &rowSink{},
		Provider: nopProvider{},
	})
	require.NoError(t, err)
	require.NoError(t, sess.Start(t.Context()))
	require.NoError(t, sess.Decide(t.Context(), "1"))
	require.NoError(t, tel.ForceFlush(t.Context()))

	var names []string
	for _, span := range exporter.GetSpans() {
		names = append(names, span.Name)
		assert.Equal(t, "handclass", serviceName(span.Resource.Attributes()))
	}
	assert.Contains(t, names, "classify.display")
	assert.Contains(t, names, "classify.decide")

	counter, err := tel.MeterProvider().Meter("test").Int64Counter("handclass.test.count")
	require.NoError(t, err)
	counter.Add(t.Context(), 2)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	assert.NoError(t, tel.Shutdown(context.Background()))
}

func serviceName(attrs []attribute.KeyValue) string {
	for _, kv := range attrs {
		if kv.Key == semconv.ServiceNameKey {
			return kv.Value.AsString()
		}
	}
	return ""
}
