// Package commands implements the CLI commands for bistro server management.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	backupcmd "github.com/bistrokit/bistro/cmd/bistro/commands/backup"
	configcmd "github.com/bistrokit/bistro/cmd/bistro/commands/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "bistro",
	Short: "Bistro - restaurant reservation and dine-in server",
	Long: `Bistro runs the reservation, waitlist and dine-in control plane for a
restaurant. It serves the wire protocol for customer and staff clients on
TCP, an HTTP ops API for the staff console, and a background scheduler that
cancels no-shows, promotes the waitlist and issues invoices.

Use "bistro [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/bistro/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(configcmd.Cmd)
	rootCmd.AddCommand(backupcmd.Cmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the value of the global --config flag.
func GetConfigFile() string {
	return cfgFile
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
	os.Exit(1)
}
