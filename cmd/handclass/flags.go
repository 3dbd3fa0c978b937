package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fyrsmithlabs/handclass/internal/classify"
	"github.com/fyrsmithlabs/handclass/internal/config"
)

// addInputFlags registers the flags that describe the items and labels.
func addInputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSlice("labels", nil, "comma-separated labels to choose from (default 0,1)")
	f.Bool("pair", false, "classify pairs of items shown side by side")
	f.Bool("link", false, "classify links: items carry a link target in the third field")
	f.Int("skip", 0, "skip this many records, e.g. those classified in an earlier run")
	f.Int("previous", 0, "items classified in earlier runs, for progress display (default --skip)")
	f.Bool("header", false, "the input file starts with a header row")
	f.String("input-dialect", "", "input dialect: excel-tab, excel, unix")
}

// addClassifyFlags registers the flags only a live session uses.
func addClassifyFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("output", "o", "", `results file ("-" or empty for stdout)`)
	f.Bool("append", false, "append to the results file instead of truncating it (always on with --skip or --previous)")
	f.String("dialect", "", "output dialect: excel-tab, excel, unix")
	f.String("provider", "", "content provider: text, browser, wayback, wayback-fallback")
	f.String("format", "", "inline content format: plain, html, markdown")
	f.String("wayback-url", "", "archive base URL the identifier is appended to")
	f.Bool("plain", false, "use the line-oriented console instead of the full-screen UI")
	f.Bool("metrics", false, "serve /health, /metrics and /api/v1/progress")
	f.Int("metrics-port", 0, "status server port")
	f.String("log-level", "", "log level: trace, debug, info, warn, error")
	f.String("log-file", "", `log destination: a file, "stderr" or "stdout"`)
}

// loadConfig loads configuration and applies changed flags and the input
// path argument on top.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.LoadUnvalidated(configPath)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.Input.Path = args[0]
	}
	if err := applyFlags(cmd.Flags(), cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(f *pflag.FlagSet, cfg *config.Config) error {
	if f.Changed("labels") {
		cfg.Session.Labels, _ = f.GetStringSlice("labels")
	}
	if f.Changed("pair") || f.Changed("link") {
		pair, _ := f.GetBool("pair")
		link, _ := f.GetBool("link")
		mode, err := classify.ModeFromFlags(pair, link)
		if err != nil {
			return err
		}
		cfg.Session.Mode = mode.String()
	}
	if f.Changed("skip") {
		cfg.Input.Skip, _ = f.GetInt("skip")
	}
	if f.Changed("previous") {
		n, _ := f.GetInt("previous")
		cfg.Session.SetPrevious(n)
	}

	setBool(f, "header", &cfg.Input.Header)
	setString(f, "input-dialect", &cfg.Input.Dialect)
	setString(f, "output", &cfg.Output.Path)
	setBool(f, "append", &cfg.Output.Append)
	setString(f, "dialect", &cfg.Output.Dialect)
	setString(f, "provider", &cfg.Content.Provider)
	setString(f, "format", &cfg.Content.Format)
	setString(f, "wayback-url", &cfg.Wayback.URL)
	setBool(f, "plain", &cfg.UI.Plain)
	setBool(f, "metrics", &cfg.Metrics.Enabled)
	if f.Changed("metrics-port") {
		cfg.Metrics.Port, _ = f.GetInt("metrics-port")
	}
	setString(f, "log-level", &cfg.Logging.Level)
	setString(f, "log-file", &cfg.Logging.Path)
	return nil
}

func setString(f *pflag.FlagSet, name string, dst *string) {
	if f.Changed(name) {
		*dst, _ = f.GetString(name)
	}
}

func setBool(f *pflag.FlagSet, name string, dst *bool) {
	if f.Changed(name) {
		*dst, _ = f.GetBool(name)
	}
}
