package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bistrokit/bistro/internal/logger"
	"github.com/bistrokit/bistro/internal/telemetry"
	"github.com/bistrokit/bistro/pkg/config"
	"github.com/bistrokit/bistro/pkg/journal"
	"github.com/bistrokit/bistro/pkg/metrics"
	prommetrics "github.com/bistrokit/bistro/pkg/metrics/prometheus"
	"github.com/bistrokit/bistro/pkg/runtime"
	"github.com/bistrokit/bistro/pkg/store"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the bistro server",
	Long: `Start the bistro server with the specified configuration.

By default, the server runs in the background (daemon mode). Use --foreground
to run in the foreground for debugging or when managed by a process supervisor.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/bistro/config.yaml.

Examples:
  # Start in background (default)
  bistro start

  # Start in foreground
  bistro start --foreground

  # Start with custom config file
  bistro start --config /etc/bistro/config.yaml

  # Start with environment variable overrides
  BISTRO_LOGGING_LEVEL=DEBUG bistro start --foreground`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/bistro/bistro.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/bistro/bistro.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "bistro",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "bistro",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	fmt.Println("Bistro - restaurant reservation and dine-in server")
	logger.Info("log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	// The registry must exist before any component asks for collectors.
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("metrics enabled", "port", cfg.Metrics.Port)
	}

	st, err := store.New(&cfg.Database, prommetrics.NewPoolMetrics())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	if err := st.TestOpen(); err != nil {
		st.Close()
		return fmt.Errorf("database connection check failed: %w", err)
	}

	if cfg.Manager.PasswordHash != "" {
		created, err := st.BootstrapManager(ctx, cfg.Manager.Username, cfg.Manager.PasswordHash)
		if err != nil {
			st.Close()
			return fmt.Errorf("failed to bootstrap manager user: %w", err)
		}
		if created {
			logger.Info("manager user created from config", "username", cfg.Manager.Username)
		}
	} else {
		managerPassword, err := st.EnsureManagerUser(ctx)
		if err != nil {
			st.Close()
			return fmt.Errorf("failed to ensure manager user: %w", err)
		}
		if managerPassword != "" {
			logger.Info("manager user created", "username", store.ManagerUsername)
			fmt.Printf("\n*** IMPORTANT: Manager user created with password: %s ***\n", managerPassword)
			fmt.Println("Please save this password. It will not be shown again.")
			fmt.Println()
		}
	}

	// Sessions stuck by an unclean shutdown would otherwise block logins.
	if err := st.ResetAllLoginFlags(ctx); err != nil {
		st.Close()
		return fmt.Errorf("failed to reset login flags: %w", err)
	}

	var jrnl *journal.Journal
	if cfg.Journal.Enabled {
		jrnl, err = journal.Open(cfg.Journal.Config)
		if err != nil {
			st.Close()
			return fmt.Errorf("failed to open audit journal: %w", err)
		}
		logger.Info("audit journal open", "path", cfg.Journal.Path)
	}

	rt, err := runtime.New(cfg, st, jrnl)
	if err != nil {
		if jrnl != nil {
			jrnl.Close()
		}
		st.Close()
		return err
	}

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- rt.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("server is running, press Ctrl+C to stop",
		"gateway_port", cfg.Gateway.Port)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil && err != context.Canceled {
			logger.Error("server shutdown error", logger.Err(err))
			return err
		}
		logger.Info("server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("server error", logger.Err(err))
			return err
		}
		logger.Info("server stopped")
	}

	return nil
}

// startDaemon re-executes the binary detached, logging to a file.
func startDaemon() error {
	stateDir := GetDefaultStateDir()
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	pidPath := pidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	// Refuse to start twice.
	if pidData, err := os.ReadFile(pidPath); err == nil {
		var pid int
		if _, err := fmt.Sscanf(string(pidData), "%d", &pid); err == nil {
			if process, err := os.FindProcess(pid); err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return fmt.Errorf("bistro is already running (PID %d)\nUse 'bistro stop' to stop the running instance", pid)
				}
			}
		}
		_ = os.Remove(pidPath) // stale PID file
	}

	logPath := logFile
	if logPath == "" {
		logPath = GetDefaultLogFile()
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	daemonArgs := []string{"start", "--foreground", "--pid-file", pidPath}
	if GetConfigFile() != "" {
		daemonArgs = append(daemonArgs, "--config", GetConfigFile())
	}

	daemon := exec.Command(executable, daemonArgs...)

	logFileHandle, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	daemon.Stdout = logFileHandle
	daemon.Stderr = logFileHandle
	daemon.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := daemon.Start(); err != nil {
		_ = logFileHandle.Close()
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	_ = logFileHandle.Close()

	fmt.Printf("Bistro started in background (PID %d)\n", daemon.Process.Pid)
	fmt.Printf("  PID file: %s\n", pidPath)
	fmt.Printf("  Log file: %s\n", filepath.Clean(logPath))
	fmt.Println("\nUse 'bistro stop' to stop the server")
	fmt.Println("Use 'bistro status' to check server status")

	return nil
}
