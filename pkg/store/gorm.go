package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bistrokit/bistro/pkg/models"
)

// DatabaseType defines the supported database backends.
type DatabaseType string

const (
	// DatabaseTypeSQLite uses SQLite (single-node, default).
	DatabaseTypeSQLite DatabaseType = "sqlite"

	// DatabaseTypePostgres uses PostgreSQL.
	DatabaseTypePostgres DatabaseType = "postgres"
)

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the path to the SQLite database file.
	// Default: $XDG_CONFIG_HOME/bistro/bistro.db
	Path string `mapstructure:"path" yaml:"path"`
}

// PostgresConfig contains PostgreSQL-specific configuration.
type PostgresConfig struct {
	Host        string `mapstructure:"host" yaml:"host"`
	Port        int    `mapstructure:"port" yaml:"port"`
	Database    string `mapstructure:"database" yaml:"database"`
	User        string `mapstructure:"user" yaml:"user"`
	Password    string `mapstructure:"password" yaml:"password,omitempty"`
	SSLMode     string `mapstructure:"ssl_mode" yaml:"ssl_mode"` // disable, require, verify-ca, verify-full
	SSLRootCert string `mapstructure:"ssl_root_cert" yaml:"ssl_root_cert,omitempty"`
}

// DSN returns the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)

	if c.SSLMode != "" {
		dsn += fmt.Sprintf(" sslmode=%s", c.SSLMode)
	}
	if c.SSLRootCert != "" {
		dsn += fmt.Sprintf(" sslrootcert=%s", c.SSLRootCert)
	}

	return dsn
}

// Config contains database configuration.
type Config struct {
	Type     DatabaseType   `mapstructure:"type" yaml:"type"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`

	// PoolSize bounds the handle pool. Default: 10.
	PoolSize int `mapstructure:"pool_size" yaml:"pool_size"`
}

// ApplyDefaults fills in missing configuration with default values.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = DatabaseTypeSQLite
	}
	if c.PoolSize == 0 {
		c.PoolSize = DefaultPoolSize
	}

	if c.Type == DatabaseTypeSQLite && c.SQLite.Path == "" {
		configDir := os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			homeDir, _ := os.UserHomeDir()
			configDir = filepath.Join(homeDir, ".config")
		}
		c.SQLite.Path = filepath.Join(configDir, "bistro", "bistro.db")
	}

	if c.Type == DatabaseTypePostgres {
		if c.Postgres.Port == 0 {
			c.Postgres.Port = 5432
		}
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case DatabaseTypePostgres:
		if c.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("postgres database is required")
		}
		if c.Postgres.User == "" {
			return fmt.Errorf("postgres user is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("pool size cannot be negative")
	}
	return nil
}

// Store provides typed data access over the Bistro schema. Every repository
// method acquires one pooled handle, runs a single logical operation, and
// releases the handle.
type Store struct {
	pool   *Pool
	config *Config
}

// New creates a store based on the configuration.
//
// SQLite deployments get their schema via GORM auto-migration. PostgreSQL
// deployments are migrated with the embedded SQL migrations (the same fixed
// schema, applied under golang-migrate's advisory lock).
func New(config *Config, poolMetrics PoolMetrics) (*Store, error) {
	if config == nil {
		config = &Config{}
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	open, err := openFunc(config)
	if err != nil {
		return nil, err
	}

	// Apply the schema once, on a dedicated handle.
	if err := migrateSchema(config, open); err != nil {
		return nil, err
	}

	return &Store{
		pool:   NewPool(config.PoolSize, open, poolMetrics),
		config: config,
	}, nil
}

// openFunc returns the physical handle opener for the configured backend.
func openFunc(config *Config) (OpenFunc, error) {
	var dsn string
	switch config.Type {
	case DatabaseTypeSQLite:
		// Ensure parent directory exists for SQLite
		if err := os.MkdirAll(filepath.Dir(config.SQLite.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		// WAL for concurrent readers, busy_timeout to ride out the single writer.
		dsn = config.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	case DatabaseTypePostgres:
		dsn = config.Postgres.DSN()

	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	dbType := config.Type
	return func() (*gorm.DB, error) {
		var dialector gorm.Dialector
		if dbType == DatabaseTypeSQLite {
			dialector = sqlite.Open(dsn)
		} else {
			dialector = postgres.Open(dsn)
		}
		return gorm.Open(dialector, &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
	}, nil
}

// migrateSchema creates or updates the schema.
func migrateSchema(config *Config, open OpenFunc) error {
	if config.Type == DatabaseTypePostgres {
		return RunMigrations(&config.Postgres)
	}

	db, err := open()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		h := &Handle{db: db}
		h.close()
	}()

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to run database migration: %w", err)
	}
	return nil
}

// Pool exposes the handle pool (for startup checks and shutdown).
func (s *Store) Pool() *Pool {
	return s.pool
}

// TestOpen opens and closes one handle to fail fast on bad credentials.
func (s *Store) TestOpen() error {
	return s.pool.TestOpen()
}

// Close shuts down the pool.
func (s *Store) Close() {
	s.pool.Close()
}
