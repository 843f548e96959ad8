package commands

import (
	"context"
	"fmt"

	"github.com/bistrokit/bistro/internal/cli/prompt"
	"github.com/bistrokit/bistro/pkg/backup"
	"github.com/bistrokit/bistro/pkg/config"
	"github.com/bistrokit/bistro/pkg/store"
	"github.com/spf13/cobra"
)

var (
	restoreKey   string
	restoreForce bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the database from a snapshot",
	Long: `Download a snapshot from the configured bucket and replace the local
database file with it.

IMPORTANT: The bistro server must be stopped before restoring. A running
server holds the database open and will not see the replaced file.

Use "bistro backup list" to find snapshot keys.

Examples:
  # Restore from a snapshot
  bistro restore --key bistro-20260826-143000.db

  # Restore without the confirmation prompt
  bistro restore --key bistro-20260826-143000.db --force`,
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().StringVarP(&restoreKey, "key", "k", "", "Snapshot key to restore (required)")
	restoreCmd.Flags().BoolVar(&restoreForce, "force", false, "Skip confirmation prompt")
	_ = restoreCmd.MarkFlagRequired("key")
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if !cfg.Backup.Enabled {
		return fmt.Errorf("backups are disabled; set backup.enabled in the config file")
	}
	if cfg.Database.Type != store.DatabaseTypeSQLite {
		return fmt.Errorf("snapshot restore only supports SQLite databases; use psql for %s", cfg.Database.Type)
	}

	if !restoreForce {
		fmt.Printf("This will replace the database at %s with snapshot %s.\n", cfg.Database.SQLite.Path, restoreKey)
		fmt.Println("Make sure the bistro server is stopped before proceeding.")
		ok, err := prompt.Confirm("Continue", false)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("restore cancelled")
		}
	}

	bs, err := backup.New(ctx, cfg.Backup)
	if err != nil {
		return fmt.Errorf("failed to initialize backup store: %w", err)
	}

	if err := bs.Restore(ctx, restoreKey, cfg.Database.SQLite.Path); err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}

	fmt.Printf("Database restored from %s\n", restoreKey)
	fmt.Println("Start the server with 'bistro start'.")
	return nil
}
