// Hpa4911ctl controls HPA4911 HVAC bridges over their broadcast UDP protocol.
//
// It keeps a small registry of known devices (MAC, IP, nickname), streams
// their status pushes, and issues mode/fan/temperature/swing commands.
//
// Usage:
//
//	hpa4911ctl [command] [flags]
//
// Running without arguments launches the live monitor.
// See 'hpa4911ctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arpena/hpa4911/internal/logging"
	"github.com/arpena/hpa4911/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hpa4911ctl",
	Short: "HPA4911 HVAC bridge control utility",
	Long: `A command line utility for HPA4911 infrared HVAC bridges.

Talks the devices' broadcast UDP protocol directly on the local network:
subscribes to status pushes, monitors availability and battery, and issues
mode, fan, temperature and swing commands.

If no command is specified, the live monitor launches automatically.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor(cmd, args)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hpa4911ctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
