package commands

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/bistrokit/bistro/internal/cli/prompt"
	"github.com/bistrokit/bistro/pkg/api"
	"github.com/bistrokit/bistro/pkg/config"
	"github.com/bistrokit/bistro/pkg/store"
)

var (
	initForce bool
	initYes   bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a configuration file",
	Long: `Initialize a bistro configuration file interactively.

By default, the configuration file is created at $XDG_CONFIG_HOME/bistro/config.yaml.
Use --config to specify a custom path, and --yes to accept all defaults
without prompting.

Examples:
  # Interactive setup at the default location
  bistro init

  # Non-interactive with defaults
  bistro init --yes

  # Force overwrite an existing config
  bistro init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Accept defaults without prompting")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("configuration file already exists: %s\nUse --force to overwrite", configPath)
	}

	cfg := config.GetDefaultConfig()

	// The ops API needs a signing secret either way; generate one so the
	// file works out of the box.
	secret, err := randomSecret()
	if err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	cfg.API.JWT.Secret = secret

	if !initYes {
		if err := promptSettings(cfg); err != nil {
			if prompt.IsAborted(err) {
				return fmt.Errorf("init cancelled")
			}
			return err
		}
	}

	if err := config.SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the server with: bistro start")
	fmt.Printf("  3. Or specify custom config: bistro start --config %s\n", configPath)
	fmt.Println("\nSecurity note:")
	fmt.Println("  A random JWT secret has been generated for development use.")
	fmt.Println("  For production, generate a secure secret and use an environment variable:")
	fmt.Printf("    export %s=$(openssl rand -hex 32)\n", api.EnvAPISecret)

	return nil
}

func promptSettings(cfg *config.Config) error {
	port, err := prompt.InputPort("Wire protocol port", cfg.Gateway.Port)
	if err != nil {
		return err
	}
	cfg.Gateway.Port = port

	dbType, err := prompt.Select("Database", []string{"sqlite", "postgres"})
	if err != nil {
		return err
	}
	cfg.Database.Type = store.DatabaseType(dbType)

	if cfg.Database.Type == store.DatabaseTypePostgres {
		if cfg.Database.Postgres.Host, err = prompt.Input("Postgres host", "localhost"); err != nil {
			return err
		}
		if cfg.Database.Postgres.Port, err = prompt.InputPort("Postgres port", 5432); err != nil {
			return err
		}
		if cfg.Database.Postgres.Database, err = prompt.Input("Postgres database", "bistro"); err != nil {
			return err
		}
		if cfg.Database.Postgres.User, err = prompt.Input("Postgres user", "bistro"); err != nil {
			return err
		}
		if cfg.Database.Postgres.Password, err = prompt.Password("Postgres password"); err != nil {
			return err
		}
	} else {
		if cfg.Database.SQLite.Path, err = prompt.Input("SQLite database path", cfg.Database.SQLite.Path); err != nil {
			return err
		}
	}

	apiEnabled, err := prompt.Confirm("Enable the ops HTTP API", true)
	if err != nil {
		return err
	}
	cfg.API.Enabled = apiEnabled
	if apiEnabled {
		if cfg.API.Port, err = prompt.InputPort("Ops API port", cfg.API.Port); err != nil {
			return err
		}
	}

	metricsEnabled, err := prompt.Confirm("Enable Prometheus metrics", false)
	if err != nil {
		return err
	}
	cfg.Metrics.Enabled = metricsEnabled

	setPassword, err := prompt.Confirm("Set the manager password now", true)
	if err != nil {
		return err
	}
	if setPassword {
		password, err := prompt.Password("Manager password")
		if err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		cfg.Manager.PasswordHash = string(hash)
	} else {
		fmt.Println("A random manager password will be generated and printed on first start.")
	}

	return nil
}

// randomSecret returns a 64-character hex string (32 bytes of entropy).
func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
