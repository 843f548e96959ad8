package backup

import (
	"context"
	"fmt"

	"github.com/bistrokit/bistro/pkg/backup"
	"github.com/bistrokit/bistro/pkg/config"
	"github.com/bistrokit/bistro/pkg/store"
	"github.com/spf13/cobra"
)

var createConfig string

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Upload a snapshot of the database",
	Long: `Upload a timestamped snapshot of the SQLite database to the configured
S3-compatible bucket.

The snapshot is taken from the database file on disk. Run this while the
server is stopped, or accept that in-flight writes may not be included.

Examples:
  # Create a snapshot
  bistro backup create

  # Create a snapshot using a specific config file
  bistro backup create --config /etc/bistro/config.yaml`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createConfig, "config", "", "Path to config file")
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.MustLoad(createConfig)
	if err != nil {
		return err
	}

	if !cfg.Backup.Enabled {
		return fmt.Errorf("backups are disabled; set backup.enabled in the config file")
	}
	if cfg.Database.Type != store.DatabaseTypeSQLite {
		return fmt.Errorf("snapshot backups only support SQLite databases; use pg_dump for %s", cfg.Database.Type)
	}

	bs, err := backup.New(ctx, cfg.Backup)
	if err != nil {
		return fmt.Errorf("failed to initialize backup store: %w", err)
	}

	key, err := bs.Create(ctx, cfg.Database.SQLite.Path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	fmt.Printf("Snapshot uploaded: %s\n", key)
	return nil
}
