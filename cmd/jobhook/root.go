package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/jobhook/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "jobhook",
	Short: "jobhook - print job submission policy evaluator",
	Long: `jobhook evaluates print jobs against the submission policies of a
print-management platform before they reach a printer.

Built-in policies:
  - Color confirmation: color jobs show the user their cost and must be
    confirmed; a cancel or an unanswered prompt cancels the job
  - Volume redirect: jobs over the page limit bypass the release queue and
    are sent to the high-volume printer

Decisions are recorded as evidence and can be queried with "jobhook evidence".`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the command's status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults plus JOBHOOK_* environment overrides if empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
