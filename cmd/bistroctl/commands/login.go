package commands

import (
	"fmt"
	"net/url"
	"time"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/bistrokit/bistro/internal/cli/credentials"
	"github.com/bistrokit/bistro/internal/cli/prompt"
	"github.com/bistrokit/bistro/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	loginServer   string
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with a bistro server",
	Long: `Authenticate with a bistro server and store credentials.

On first login, you must specify the server URL. Subsequent logins reuse
the stored server URL unless overridden.

Examples:
  # First login to a server
  bistroctl login --server http://localhost:8080 --username manager

  # Login with password on command line (less secure)
  bistroctl login --server http://localhost:8080 -u manager -p secret

  # Re-login to stored server
  bistroctl login`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginServer, "server", "", "Server URL (required on first login)")
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password")
}

func runLogin(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	serverURL := loginServer
	if serverURL == "" {
		serverURL = store.ServerURL()
	}
	if serverURL == "" {
		return fmt.Errorf("no server URL specified and no saved session found\n\n" +
			"Specify server URL:\n" +
			"  bistroctl login --server http://localhost:8080")
	}

	parsed, err := url.Parse(serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "http"
		serverURL = parsed.String()
	}

	username := loginUsername
	if username == "" {
		username, err = prompt.InputRequired("Username")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	password := loginPassword
	if password == "" {
		password, err = prompt.Password("Password")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	client := apiclient.New(serverURL)

	fmt.Printf("Logging in to %s as %s...\n", serverURL, username)
	tokens, err := client.Login(username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	creds := &credentials.Credentials{
		ServerURL:    serverURL,
		Username:     username,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    time.Now().Add(tokens.ExpiresInDuration()),
	}
	if err := store.Save(creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Printf("Logged in successfully as %s\n", username)
	fmt.Printf("Credentials saved to: %s\n", store.Path())

	return nil
}
