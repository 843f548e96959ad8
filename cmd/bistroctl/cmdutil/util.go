// Package cmdutil provides shared utilities for bistroctl commands.
package cmdutil

import (
	"fmt"
	"io"
	"time"

	"github.com/bistrokit/bistro/internal/cli/credentials"
	"github.com/bistrokit/bistro/internal/cli/output"
	"github.com/bistrokit/bistro/internal/cli/prompt"
	"github.com/bistrokit/bistro/pkg/apiclient"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ServerURL string
	Token     string
	Output    string
}

// GetAuthenticatedClient returns an API client for the saved session. The
// --server and --token flags override stored credentials. An expired access
// token is refreshed transparently when a refresh token is saved.
func GetAuthenticatedClient() (*apiclient.Client, error) {
	if Flags.ServerURL != "" && Flags.Token != "" {
		return apiclient.New(Flags.ServerURL).WithToken(Flags.Token), nil
	}

	store, err := credentials.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}

	creds, err := store.Get()
	if err != nil {
		return nil, err
	}

	url := creds.ServerURL
	if Flags.ServerURL != "" {
		url = Flags.ServerURL
	}
	if url == "" {
		return nil, fmt.Errorf("no server URL configured. Run 'bistroctl login --server <url>' first")
	}

	tok := creds.AccessToken
	if Flags.Token != "" {
		tok = Flags.Token
	}

	if creds.IsExpired() && creds.HasRefreshToken() {
		client := apiclient.New(url)
		tokens, err := client.Refresh(creds.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("session expired. Run 'bistroctl login' to re-authenticate")
		}

		expiresAt := time.Now().Add(tokens.ExpiresInDuration())
		if err := store.UpdateTokens(tokens.AccessToken, tokens.RefreshToken, expiresAt); err != nil {
			return nil, fmt.Errorf("failed to save refreshed tokens: %w", err)
		}

		tok = tokens.AccessToken
	}

	if tok == "" {
		return nil, credentials.ErrNotLoggedIn
	}

	return apiclient.New(url).WithToken(tok), nil
}

// GetOutputFormatParsed returns the parsed output format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// PrintOutput prints data in the selected format. For table format it prints
// emptyMsg when the list is empty, otherwise renders via tableRenderer.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		if isEmpty {
			_, _ = fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.PrintTable(w, tableRenderer)
	}
}

// PrintResource prints a single resource in the selected format.
func PrintResource(w io.Writer, data any, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		return output.PrintTable(w, tableRenderer)
	}
}

// PrintSuccess prints a success message if the output format is table.
func PrintSuccess(msg string) {
	format, err := GetOutputFormatParsed()
	if err != nil || format != output.FormatTable {
		return
	}
	fmt.Println(msg)
}

// RunDeleteWithConfirmation prompts for confirmation (unless force is true)
// and runs deleteFn.
func RunDeleteWithConfirmation(resourceType, name string, force bool, deleteFn func() error) error {
	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete %s %s?", resourceType, name), force)
	if err != nil {
		if prompt.IsAborted(err) {
			fmt.Println("\nAborted.")
			return nil
		}
		return err
	}
	if !confirmed {
		fmt.Println("Aborted.")
		return nil
	}

	if err := deleteFn(); err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("%s %s deleted", resourceType, name))
	return nil
}

// HandleAbort converts a Ctrl+C abort into a clean exit. Other errors pass
// through unchanged.
func HandleAbort(err error) error {
	if prompt.IsAborted(err) {
		fmt.Println("\nAborted.")
		return nil
	}
	return err
}
