// cmd/insights-cli/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rms-insight-workers/internal/common/logger"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	var log logger.Logger = logger.NewNoOpLogger()

	root := &cobra.Command{
		Use:           "insights-cli",
		Short:         "Build and inspect business insight tables offline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				log = logger.NewZapAdapter(logger.New(logLevel, "console"))
			}
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log to stderr at this level (debug, info, warn, error)")

	getLogger := func() logger.Logger { return log }
	root.AddCommand(
		newBuildCmd(getLogger),
		newHistoryCmd(),
		newRegistryCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "insights-cli %s\n", version)
			},
		},
	)
	return root
}
