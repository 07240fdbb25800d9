package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for proxycheck.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxycheck",
		Short: "Concurrent validator for HTTP and SOCKS5 proxy lists",
		Long: `proxycheck validates a list of candidate proxies by sending a real request
through each one and keeping those that answer with a 2xx status.

Candidates are written one per line as host:port or host:port:user:pass.
Probes run concurrently with a per-attempt timeout, retries with backoff,
and a small random delay so that workers do not hit the test endpoint
in lockstep.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write log records as JSON")

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
