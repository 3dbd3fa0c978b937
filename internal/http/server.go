// Package http provides the optional status server: health, Prometheus
// metrics and live session progress.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Server provides HTTP endpoints for a running session.
type Server struct {
	echo     *echo.Echo
	tracker  *Tracker
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	config   *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
	// MeterProvider receives request metrics; nil uses the global provider.
	MeterProvider metric.MeterProvider
}

// HealthResponse is the response body for GET /health. Status is "ok"
// while items remain and "complete" once the session has finished.
type HealthResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
	Uptime    string `json:"uptime"`
}

// NewServer creates a new HTTP server. gatherer backs /metrics.
func NewServer(tracker *Tracker, gatherer prometheus.Gatherer, logger *zap.Logger, cfg *Config) (*Server, error) {
	if tracker == nil {
		return nil, fmt.Errorf("progress tracker cannot be nil")
	}
	if gatherer == nil {
		return nil, fmt.Errorf("metrics gatherer cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &Config{
			Host: "127.0.0.1",
			Port: 9477,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(cfg.MeterProvider, logger).Middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			logger.Debug("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:     e,
		tracker:  tracker,
		gatherer: gatherer,
		logger:   logger,
		config:   cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/progress", s.handleProgress)
}

func (s *Server) handleHealth(c echo.Context) error {
	snap := s.tracker.Snapshot()
	resp := HealthResponse{
		Status:    "ok",
		SessionID: snap.SessionID,
		Uptime:    time.Since(snap.StartedAt).Round(time.Second).String(),
	}
	if snap.Done {
		resp.Status = "complete"
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleProgress(c echo.Context) error {
	return c.JSON(http.StatusOK, s.tracker.Snapshot())
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting status server", zap.String("addr", s.Addr()))
	if err := s.echo.Start(s.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down status server")
	return s.echo.Shutdown(ctx)
}
