package cli

import (
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// workspacePath overrides the workspace root (defaults to the current
// directory).
var workspacePath string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "revu",
	Version: Version,
	Short:   "A review synthesis engine for multi-lens artifact analysis",
	Long: `Revu dispatches a set of analysis lenses against one artifact snapshot,
validates and clusters what they report, and synthesizes a single ranked
report with fixed, replayable rules. Approved clusters become tracked
action items; every step lands in a tamper-evident audit trail.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&workspacePath, "workspace", "C", "", "workspace root (defaults to the current directory)")
}
