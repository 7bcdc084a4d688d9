// Command boltctl is a thin operator CLI over the boltcore client:
// run a single statement, open an interactive shell, drive a latency
// benchmark, or just check that a server answers the handshake.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/graphwire/boltcore/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	logging.ConfigureRuntime()

	rootCmd := &cobra.Command{
		Use:           "boltctl",
		Short:         "Operate a graph database wire connection from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		runCmd(),
		shellCmd(),
		benchCmd(),
		handshakeCheckCmd(),
		initCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "boltctl: %v\n", err)
		os.Exit(1)
	}
}
