package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [items-file]",
	Short: "Check configuration and items without starting a session",
	Long: `Load the configuration and the items file, check every record against
the mode, and report how many items a session would show.

Examples:
  handclass validate items.tsv
  handclass validate --pair --labels same,different pairs.tsv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	addInputFlags(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	records, mode, err := loadItems(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d items OK\n", len(records))
	fmt.Fprintf(out, "Mode:     %s\n", mode)
	fmt.Fprintf(out, "Labels:   %s\n", strings.Join(cfg.Session.Labels, ", "))
	fmt.Fprintf(out, "Provider: %s\n", cfg.Content.Provider)
	if p := cfg.EffectivePrevious(); p > 0 {
		fmt.Fprintf(out, "Previous: %d\n", p)
	}
	return nil
}
