package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/handclass/internal/config"
	"github.com/fyrsmithlabs/handclass/internal/logging"
	"github.com/fyrsmithlabs/handclass/internal/telemetry"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [items-file]",
	Short: "Start a labeling session",
	Long: `Start a labeling session over the items in items-file (default stdin).

Each record is identifier<TAB>content[<TAB>extra...]. In --pair mode records
are identifier, content, identifier2, content2; in --link mode identifier,
content, link target. Extra fields are copied to the result row after the
label.

Results are written to --output (default stdout) as identifier, label,
extras, or identifier, identifier2, label, extras for pairs. Every row is
flushed as soon as it is decided.

Examples:
  # Label items as 0 or 1
  handclass classify items.tsv > labels.tsv

  # Resume after 120 items, keeping the earlier rows
  handclass classify --skip 120 -o labels.tsv --append items.tsv

  # Open each item's archived page in the browser
  handclass classify --provider wayback --wayback-url http://archive.local/wayback/ items.tsv

  # Serve progress and metrics while labeling
  handclass classify --metrics --metrics-port 9477 items.tsv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	addInputFlags(classifyCmd)
	addClassifyFlags(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runSession(ctx, cfg, appDeps{})
}

// runSession runs one session with cfg.
func runSession(ctx context.Context, cfg *config.Config, deps appDeps) error {
	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Close()
	zl := logger.Underlying()

	tel, err := telemetry.New(ctx, &cfg.Telemetry, version)
	if err != nil {
		zl.Error("telemetry setup failed", zap.Error(err))
		return err
	}
	defer func() {
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			zl.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()
	if tel.Enabled() {
		zl.Info("telemetry enabled",
			zap.String("endpoint", cfg.Telemetry.Endpoint),
			zap.String("protocol", cfg.Telemetry.Protocol))
	}

	a, err := newApp(ctx, cfg, zl, tel, deps)
	if err != nil {
		zl.Error("session setup failed", zap.Error(err))
		return err
	}
	runErr := a.run(ctx)
	if err := a.Close(); err != nil {
		zl.Warn("cleanup failed", zap.Error(err))
		if runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		zl.Error("session ended with error", zap.Error(runErr))
	}
	return runErr
}
