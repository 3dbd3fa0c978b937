package http

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/handclass/internal/http"

// HTTPMetrics records status server requests through OpenTelemetry.
type HTTPMetrics struct {
	requestsTotal metric.Int64Counter
	requestDur    metric.Float64Histogram
	inFlight      metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the instruments on provider. A nil provider uses
// the global one, which is a no-op unless an SDK was installed.
func NewHTTPMetrics(provider metric.MeterProvider, logger *zap.Logger) *HTTPMetrics {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	meter := provider.Meter(httpInstrumentationName)

	m := &HTTPMetrics{}
	var err error
	m.requestsTotal, err = meter.Int64Counter(
		"handclass.http.requests_total",
		metric.WithDescription("Status server requests by method, endpoint and status code"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		logger.Warn("failed to create requests counter", zap.Error(err))
	}
	m.requestDur, err = meter.Float64Histogram(
		"handclass.http.request_duration_seconds",
		metric.WithDescription("Status server request duration by method, endpoint and status"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0),
	)
	if err != nil {
		logger.Warn("failed to create duration histogram", zap.Error(err))
	}
	m.inFlight, err = meter.Int64UpDownCounter(
		"handclass.http.active_requests",
		metric.WithDescription("Status server requests in flight"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		logger.Warn("failed to create active requests gauge", zap.Error(err))
	}
	return m
}

// Middleware returns an Echo middleware that records request metrics.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			start := time.Now()
			if m.inFlight != nil {
				m.inFlight.Add(ctx, 1)
			}

			err := next(c)

			attrs := metric.WithAttributes(
				attribute.String("method", c.Request().Method),
				attribute.String("endpoint", normalizePath(c.Path())),
				attribute.Int("status", c.Response().Status),
			)
			if m.requestsTotal != nil {
				m.requestsTotal.Add(ctx, 1, attrs)
			}
			if m.requestDur != nil {
				m.requestDur.Record(ctx, time.Since(start).Seconds(), attrs)
			}
			if m.inFlight != nil {
				m.inFlight.Add(ctx, -1)
			}
			return err
		}
	}
}

// normalizePath maps unmatched routes to one endpoint value so scans of
// unknown paths share a series.
func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
