package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/bistrokit/bistro/pkg/adapter/gateway"
	"github.com/bistrokit/bistro/pkg/store"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyGatewayDefaults(&cfg.Gateway)
	applyDatabaseDefaults(&cfg.Database)
	applyMetricsDefaults(&cfg.Metrics)
	cfg.API.ApplyDefaults()
	applyJournalDefaults(cfg)
	cfg.Backup.ApplyDefaults()
	applyManagerDefaults(&cfg.Manager)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Enabled defaults to false (opt-in for telemetry)

	// Default endpoint is localhost:4317 (standard OTLP gRPC port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	// Default sample rate is 1.0 (sample all traces)
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	// Default endpoint is localhost:4040 (standard Pyroscope port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// applyGatewayDefaults sets wire protocol listener defaults.
func applyGatewayDefaults(cfg *gateway.Config) {
	if cfg.Port == 0 {
		cfg.Port = gateway.DefaultPort
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyDatabaseDefaults sets database defaults.
func applyDatabaseDefaults(cfg *store.Config) {
	cfg.ApplyDefaults()
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in for metrics)
	// Port defaults to 9090 if metrics are enabled
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyJournalDefaults sets audit journal defaults. The journal path defaults
// to a "journal" directory next to the SQLite database file.
func applyJournalDefaults(cfg *Config) {
	if cfg.Journal.Path == "" && !cfg.Journal.InMemory {
		if cfg.Database.Type == store.DatabaseTypeSQLite && cfg.Database.SQLite.Path != "" {
			cfg.Journal.Path = filepath.Join(filepath.Dir(cfg.Database.SQLite.Path), "journal")
		} else {
			cfg.Journal.Path = filepath.Join(getConfigDir(), "journal")
		}
	}
}

// applyManagerDefaults sets manager user defaults.
func applyManagerDefaults(cfg *ManagerConfig) {
	// Default username is "manager"
	if cfg.Username == "" {
		cfg.Username = "manager"
	}
	// PasswordHash has no default - it's set during init
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Logging: LoggingConfig{},
		Database: store.Config{
			Type: store.DatabaseTypeSQLite, // Default to SQLite for single-node
		},
		Journal: JournalConfig{
			Enabled: true,
		},
		Manager: ManagerConfig{
			Username: "manager",
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
