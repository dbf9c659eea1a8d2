package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kvhttpd/internal/version"
)

// rootCmd starts the server. Flag parsing is left to arghelper so that a flag
// may take several space-separated values and unknown flags are ignored.
var rootCmd = &cobra.Command{
	Use:   "kvhttpd [--host HOST] [--port PORT] [--method asynchttp]",
	Short: "kvhttpd - a minimal HTTP server with a shared typed cache",
	Long: `kvhttpd accepts raw TCP connections, parses each into a request, routes it
by exact endpoint and verb to a registered handler and writes back a status
line, a text body or a streamed file.`,
	DisableFlagParsing: true,
	Args:               cobra.ArbitraryArgs,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE:               runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
