package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bistrokit/bistro/internal/cli/output"
)

var (
	statusOutput  string
	statusPidFile string
	statusAPIPort int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the current status of the bistro server.

This command checks the PID file and calls the ops API health endpoints to
report liveness and store readiness.

Examples:
  # Check status
  bistro status

  # Check status with custom ops API port
  bistro status --api-port 9080

  # Output as JSON
  bistro status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/bistro/bistro.pid)")
	statusCmd.Flags().IntVar(&statusAPIPort, "api-port", 8080, "Ops API server port")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// ServerStatus is the assembled status report.
type ServerStatus struct {
	Running bool   `json:"running" yaml:"running"`
	PID     int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Healthy bool   `json:"healthy" yaml:"healthy"`
	Ready   bool   `json:"ready" yaml:"ready"`
	Message string `json:"message" yaml:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	status := ServerStatus{Message: "Server is not running"}

	pidPath := statusPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	if pidData, err := os.ReadFile(pidPath); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(pidData))); err == nil {
			if process, err := os.FindProcess(pid); err == nil {
				// Signal 0 probes for existence without touching the process.
				if process.Signal(syscall.Signal(0)) == nil {
					status.Running = true
					status.PID = pid
				}
			}
		}
	}

	client := &http.Client{Timeout: 2 * time.Second}

	if health := probeHealth(client, fmt.Sprintf("http://localhost:%d/health", statusAPIPort)); health != nil {
		status.Running = true
		status.Healthy = health.Status == "healthy"
	}
	if ready := probeHealth(client, fmt.Sprintf("http://localhost:%d/health/ready", statusAPIPort)); ready != nil {
		status.Ready = ready.Status == "healthy"
		if !status.Ready && ready.Error != "" {
			status.Message = fmt.Sprintf("Server is running but not ready: %s", ready.Error)
		}
	}

	switch {
	case status.Running && status.Healthy && status.Ready:
		status.Message = "Server is running and healthy"
	case status.Running && !status.Healthy:
		status.Message = "Server process exists but health check failed"
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
	}
	return nil
}

func probeHealth(client *http.Client, url string) *healthResponse {
	resp, err := client.Get(url)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil
	}
	return &health
}

func printStatusTable(status ServerStatus) {
	fmt.Println()
	fmt.Println("Bistro Server Status")
	fmt.Println("====================")
	fmt.Println()

	if status.Running {
		if status.Healthy {
			fmt.Printf("  Status:   \033[32m● Running\033[0m\n")
		} else {
			fmt.Printf("  Status:   \033[33m● Running (unhealthy)\033[0m\n")
		}
		if status.PID != 0 {
			fmt.Printf("  PID:      %d\n", status.PID)
		}
		fmt.Printf("  Ready:    %v\n", status.Ready)
	} else {
		fmt.Printf("  Status:   \033[31m○ Stopped\033[0m\n")
	}

	fmt.Println()
	fmt.Printf("  %s\n", status.Message)
	fmt.Println()
}
