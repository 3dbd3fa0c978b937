// Package telemetry exports the session's OpenTelemetry spans and the
// status server's request metrics to an OTLP collector.
//
// Telemetry is off by default. When disabled, New returns an instance whose
// providers are the global no-op ones, so callers never branch on it:
//
//	tel, err := telemetry.New(ctx, cfg, version)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Telemetry owns the SDK providers installed as the otel globals.
type Telemetry struct {
	config *Config

	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// New validates cfg and, when enabled, installs tracer and meter providers
// as the otel globals. version is recorded on the resource.
func New(ctx context.Context, cfg *Config, version string, opts ...Option) (*Telemetry, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Telemetry{config: cfg}
	if !cfg.Enabled {
		return t, nil
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	res := newResource(cfg, version)

	tp, err := newTracerProvider(ctx, cfg, res, o)
	if err != nil {
		return nil, err
	}
	mp, err := newMeterProvider(ctx, cfg, res, o)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	t.tracerProvider = tp
	t.meterProvider = mp

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return t, nil
}

// Enabled reports whether SDK providers are installed.
func (t *Telemetry) Enabled() bool {
	return t != nil && t.tracerProvider != nil
}

// TracerProvider returns the SDK provider, or the global one when disabled.
func (t *Telemetry) TracerProvider() oteltrace.TracerProvider {
	if !t.Enabled() {
		return otel.GetTracerProvider()
	}
	return t.tracerProvider
}

// MeterProvider returns the SDK provider, or the global one when disabled.
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	if t == nil || t.meterProvider == nil {
		return otel.GetMeterProvider()
	}
	return t.meterProvider
}

// ForceFlush exports pending spans and metrics without stopping.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	if !t.Enabled() {
		return nil
	}
	return errors.Join(t.tracerProvider.ForceFlush(ctx), t.meterProvider.ForceFlush(ctx))
}

// Shutdown flushes and stops the providers. Without a deadline on ctx the
// configured shutdown timeout applies.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if !t.Enabled() {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.ShutdownTimeout)
		defer cancel()
	}

	var errs []error
	if err := t.tracerProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("trace provider shutdown: %w", err))
	}
	if err := t.meterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
	}
	return errors.Join(errs...)
}
