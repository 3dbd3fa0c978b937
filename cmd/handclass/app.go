package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/handclass/internal/classify"
	"github.com/fyrsmithlabs/handclass/internal/config"
	"github.com/fyrsmithlabs/handclass/internal/console"
	"github.com/fyrsmithlabs/handclass/internal/content"
	"github.com/fyrsmithlabs/handclass/internal/delimited"
	"github.com/fyrsmithlabs/handclass/internal/docstore"
	statushttp "github.com/fyrsmithlabs/handclass/internal/http"
	"github.com/fyrsmithlabs/handclass/internal/render"
	"github.com/fyrsmithlabs/handclass/internal/telemetry"
	"github.com/fyrsmithlabs/handclass/internal/tui"
)

const shutdownTimeout = 5 * time.Second

// app owns every resource of one classify run.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	sink     *delimited.Sink
	store    docstore.Store
	buffer   *content.Buffer
	session  *classify.Session
	tracker  *statushttp.Tracker
	registry *prometheus.Registry
	server   *statushttp.Server

	// stdin, stdout and stderr default to the process streams.
	stdin  io.Reader
	stdout *os.File
	stderr *os.File
}

// appDeps lets tests replace the process streams and the browser.
type appDeps struct {
	opener content.Opener
	stdin  io.Reader
	stdout *os.File
	stderr *os.File
}

// loadItems reads the input file and checks every record against the mode,
// so a malformed file fails before the results file is touched.
func loadItems(cfg *config.Config) ([]classify.Record, classify.Mode, error) {
	mode, err := cfg.ClassifyMode()
	if err != nil {
		return nil, mode, err
	}
	dialect, err := delimited.LookupDialect(cfg.Input.Dialect)
	if err != nil {
		return nil, mode, err
	}
	records, err := delimited.LoadRecords(cfg.Input.Path, delimited.ReadOptions{
		Dialect: dialect,
		Header:  cfg.Input.Header,
		Skip:    cfg.Input.Skip,
	})
	if err != nil {
		return nil, mode, err
	}
	if len(records) == 0 {
		return nil, mode, fmt.Errorf("%w: no items to classify in %s", classify.ErrConfiguration, inputName(cfg))
	}
	for i, rec := range records {
		if _, err := classify.NewItem(mode, rec); err != nil {
			return nil, mode, fmt.Errorf("%s record %d: %w", inputName(cfg), i+1+cfg.Input.Skip, err)
		}
	}
	return records, mode, nil
}

func inputName(cfg *config.Config) string {
	if cfg.Input.Path == "" || cfg.Input.Path == delimited.Stdio {
		return "stdin"
	}
	return cfg.Input.Path
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, tel *telemetry.Telemetry, deps appDeps) (_ *app, err error) {
	a := &app{
		cfg:    cfg,
		logger: logger,
		stdin:  deps.stdin,
		stdout: deps.stdout,
		stderr: deps.stderr,
	}
	if a.stdin == nil {
		a.stdin = os.Stdin
	}
	if a.stdout == nil {
		a.stdout = os.Stdout
	}
	if a.stderr == nil {
		a.stderr = os.Stderr
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	records, mode, err := loadItems(cfg)
	if err != nil {
		return nil, err
	}

	renderer, err := render.New(render.Options{Format: cfg.Content.Format, Style: cfg.Content.Style})
	if err != nil {
		return nil, err
	}
	a.buffer = content.NewBuffer(renderer)

	provider, store, err := buildProvider(ctx, cfg, a.buffer, deps.opener, logger)
	if err != nil {
		return nil, err
	}
	a.store = store

	outDialect, err := delimited.LookupDialect(cfg.Output.Dialect)
	if err != nil {
		return nil, err
	}
	if a.resultsOnStdout() {
		a.sink = delimited.NewSink(a.stdout, outDialect)
	} else if a.sink, err = delimited.OpenSink(cfg.Output.Path, outDialect, cfg.AppendOutput()); err != nil {
		return nil, err
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := classify.NewMetrics(a.registry)

	id := uuid.NewString()
	previous := cfg.EffectivePrevious()
	a.tracker = statushttp.NewTracker(statushttp.TrackerConfig{
		SessionID: id,
		Mode:      mode,
		Items:     len(records),
		Previous:  previous,
		Labels:    cfg.Session.Labels,
	})

	sessCfg := classify.Config{
		ID:         id,
		Records:    records,
		Labels:     cfg.Session.Labels,
		Mode:       mode,
		Previous:   previous,
		Sink:       a.sink,
		Provider:   provider,
		Observer:   a.tracker,
		Progress:   classify.ProgressSinks(classify.NewLogProgress(logger, previous), a.tracker),
		OnComplete: a.tracker.Complete,
		Logger:     logger,
		Metrics:    metrics,
	}
	if mode == classify.ModeLink {
		sessCfg.LinkPane = a.buffer
	}
	if a.session, err = classify.NewSession(sessCfg); err != nil {
		return nil, err
	}

	if cfg.Metrics.Enabled {
		a.server, err = statushttp.NewServer(a.tracker, a.registry, logger, &statushttp.Config{
			Host:          cfg.Metrics.Host,
			Port:          cfg.Metrics.Port,
			MeterProvider: tel.MeterProvider(),
		})
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *app) resultsOnStdout() bool {
	return a.cfg.Output.Path == "" || a.cfg.Output.Path == delimited.Stdio
}

func (a *app) itemsOnStdin() bool {
	return a.cfg.Input.Path == "" || a.cfg.Input.Path == delimited.Stdio
}

// screen is where the front-end draws: stderr when results go to stdout.
func (a *app) screen() *os.File {
	if a.resultsOnStdout() {
		return a.stderr
	}
	return a.stdout
}

func (a *app) useConsole() bool {
	if a.cfg.UI.Plain {
		return true
	}
	fd := a.screen().Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

// run serves status endpoints when enabled and drives the session with the
// configured front-end until it completes or the labeler quits.
func (a *app) run(ctx context.Context) error {
	if a.server != nil {
		errCh := make(chan error, 1)
		go func() { errCh <- a.server.Start() }()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("status server shutdown failed", zap.Error(err))
			}
			if err := <-errCh; err != nil {
				a.logger.Warn("status server stopped", zap.Error(err))
			}
		}()
	}

	if a.useConsole() {
		return a.runConsole(ctx)
	}
	return tui.Run(tui.Options{
		Context:  ctx,
		Session:  a.session,
		Buffer:   a.buffer,
		Logger:   a.logger,
		Wrap:     a.cfg.Content.Wrap,
		Output:   a.screen(),
		InputTTY: a.itemsOnStdin(),
	})
}

func (a *app) runConsole(ctx context.Context) error {
	in := a.stdin
	if a.itemsOnStdin() {
		tty, err := os.Open("/dev/tty")
		if err != nil {
			return fmt.Errorf("%w: items were read from stdin and no terminal is available for choices: %w",
				classify.ErrConfiguration, err)
		}
		defer tty.Close()
		in = tty
	}
	if a.cfg.Content.Wrap > 0 {
		if err := a.buffer.SetWidth(a.cfg.Content.Wrap); err != nil {
			return err
		}
	}
	c, err := console.New(console.Options{
		Session: a.session,
		Buffer:  a.buffer,
		In:      in,
		Out:     a.screen(),
		Logger:  a.logger,
	})
	if err != nil {
		return err
	}
	return c.Run(ctx)
}

// Close releases the session, results file and fallback store.
func (a *app) Close() error {
	var errs []error
	if a.session != nil {
		if err := a.session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close session: %w", err))
		}
	}
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close results: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close fallback store: %w", err))
		}
	}
	return errors.Join(errs...)
}
