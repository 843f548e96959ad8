// Package backup implements database snapshot subcommands for bistro.
package backup

import (
	"github.com/spf13/cobra"
)

// Cmd is the backup subcommand.
var Cmd = &cobra.Command{
	Use:   "backup",
	Short: "Database snapshot operations",
	Long: `Upload and list database snapshots in S3-compatible storage.

Snapshots are configured under the "backup" section of the config file.

Subcommands:
  create  Upload a snapshot of the database
  list    List available snapshots`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
}
