// Tinyhttp-server is a minimal HTTP/1.x server for small devices.
//
// It answers one request per connection, drives an RGB LED set from the
// page it serves and reports its state at /status. While running it
// advertises itself over mDNS so other instances can find it with "scan".
//
// Usage:
//
//	tinyhttp-server [command] [flags]
//
// Running without arguments starts the server with the saved configuration.
// See 'tinyhttp-server --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jobinpa/tinyhttp/internal/ui"
	"github.com/jobinpa/tinyhttp/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError(err))
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tinyhttp-server",
	Short: "TinyHttpServer",
	Long: `A minimal HTTP/1.x server for resource-constrained devices.

Each connection carries exactly one request. The server answers with a
fixed set of headers and closes the connection. The built-in handlers
switch an RGB LED set (GET /?color=red|green|blue|off) and report the
device state as JSON (GET /status).

If no command is specified, the server starts with the saved configuration.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: user config directory)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", version.Binary, version.Full())
	},
}
