package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/handclass/internal/classify"
)

// Export protocols.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http/protobuf"
)

// Config holds telemetry configuration.
type Config struct {
	Enabled bool `koanf:"enabled"`
	// Endpoint is the collector host:port. An http:// or https:// scheme is
	// accepted for the HTTP protocol and stripped.
	Endpoint    string `koanf:"endpoint"`
	Protocol    string `koanf:"protocol"`
	Insecure    bool   `koanf:"insecure"` // Use insecure connection (no TLS)
	ServiceName string `koanf:"service_name"`
	// SamplingRate is the fraction of root spans kept, 0.0-1.0.
	SamplingRate    float64       `koanf:"sampling_rate"`
	MetricsInterval time.Duration `koanf:"metrics_interval"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// NewDefaultConfig returns defaults for a local collector. Telemetry is
// disabled unless configured.
func NewDefaultConfig() *Config {
	return &Config{
		Endpoint:        "localhost:4317",
		Protocol:        ProtocolGRPC,
		Insecure:        true,
		ServiceName:     "handclass",
		SamplingRate:    1.0,
		MetricsInterval: 15 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// ApplyDefaults fills zero fields from NewDefaultConfig.
func (c *Config) ApplyDefaults() {
	d := NewDefaultConfig()
	if c.Endpoint == "" {
		c.Endpoint = d.Endpoint
	}
	if c.Protocol == "" {
		c.Protocol = d.Protocol
	}
	if c.ServiceName == "" {
		c.ServiceName = d.ServiceName
	}
	if c.MetricsInterval == 0 {
		c.MetricsInterval = d.MetricsInterval
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return invalid("telemetry.endpoint is required when telemetry is enabled")
	}
	if c.ServiceName == "" {
		return invalid("telemetry.service_name is required when telemetry is enabled")
	}
	switch c.Protocol {
	case "", ProtocolGRPC, ProtocolHTTP:
	default:
		return invalid("unknown telemetry.protocol %q (grpc or http/protobuf)", c.Protocol)
	}
	// Plaintext export is only allowed to this host.
	if c.Insecure && !c.isLocalEndpoint() {
		return invalid("insecure export to remote endpoint %s; set telemetry.insecure=false", c.Endpoint)
	}
	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return invalid("telemetry.sampling_rate must be between 0 and 1, got %g", c.SamplingRate)
	}
	if c.MetricsInterval <= 0 {
		return invalid("telemetry.metrics_interval must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return invalid("telemetry.shutdown_timeout must be positive")
	}
	return nil
}

// isLocalEndpoint checks if the endpoint is a loopback address.
func (c *Config) isLocalEndpoint() bool {
	host := stripScheme(c.Endpoint)
	switch {
	case strings.HasPrefix(host, "["):
		// [::1]:4317
		if idx := strings.Index(host, "]"); idx != -1 {
			host = host[1:idx]
		}
	case strings.Count(host, ":") == 1:
		host = host[:strings.LastIndex(host, ":")]
	}
	return host == "localhost" || host == "::1" || strings.HasPrefix(host, "127.")
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", classify.ErrConfiguration, fmt.Sprintf(format, args...))
}
