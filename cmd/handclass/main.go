// Handclass is a hand-classification tool: it shows each item of a
// delimited input file, records the label chosen from a fixed set and
// appends one result row per decision.
//
// Usage:
//
//	# Label items as 0 or 1, results to stdout
//	handclass classify items.tsv > labels.tsv
//
//	# Compare pairs with custom labels, appending to a results file
//	handclass classify --pair --labels same,different -o pairs.tsv --append pairs-in.tsv
//
//	# Check an input file without starting a session
//	handclass validate --link links.tsv
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// configPath is the --config flag shared by every command.
var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "handclass",
	Short: "Hand-classify items from a delimited file",
	Long: `handclass presents items one at a time and records a label for each.

Items come from a tab-separated (or other dialect) file. Each decision is
appended to the results file and flushed immediately, so an interrupted run
can be resumed with --skip.

Configuration is read from --config, or ~/.config/handclass/config.yaml when
present, then HANDCLASS_* environment variables, then flags.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (yaml or toml)")
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "handclass\n")
		fmt.Fprintf(out, "Version:    %s\n", version)
		fmt.Fprintf(out, "Commit:     %s\n", gitCommit)
		fmt.Fprintf(out, "Build Date: %s\n", buildDate)
	},
}
