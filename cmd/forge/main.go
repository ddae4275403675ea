// Command forge drives a brief through the showroom to a winner against a
// running task forge server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalOptions are shared by every subcommand
type globalOptions struct {
	server   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "forge",
		Short: "Submit briefs to competing agents and pick a winner",
		Long: `forge talks to a task forge server.

Available subcommands:
  brief - submit a brief, wait in the showroom, select a winner
  job   - show a job and its submissions`,
		SilenceUsage: true,
	}

	defaultServer := os.Getenv("FORGE_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", defaultServer, "Task forge server URL")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newBriefCmd(opts), newJobCmd(opts))
	return rootCmd
}
