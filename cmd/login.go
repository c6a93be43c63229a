package cmd

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// Login-specific flags
var (
	loginUsername string
	loginPassword string
)

// newLoginCmd creates the login command.
func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store a session",
		Long: `Authenticate against the configured token endpoint and store the
resulting token pair for subsequent requests.

The password is read interactively unless --password is given (intended
for scripting; prefer the interactive prompt).

Examples:
  authkit login --username alice         # Prompt for password
  authkit login                          # Prompt for both`,
		RunE: runLogin,
	}

	cmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username to authenticate as")
	cmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (omit to be prompted)")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	username := loginUsername
	if username == "" {
		line, err := readline.Line("Username: ")
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = line
	}
	if username == "" {
		return fmt.Errorf("a username is required")
	}

	password := loginPassword
	if password == "" {
		pw, err := readline.Password("Password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(pw)
	}

	var s *spinner.Spinner
	if !quiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " Authenticating..."
		s.Start()
	}

	creds, err := a.coordinator.Login(cmd.Context(), username, password)

	if s != nil {
		s.Stop()
	}
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	outPrint("%s Logged in as %s\n", text.FgGreen.Sprint("✓"), username)
	if !creds.ExpiresAt.IsZero() {
		outPrint("  Token expires: %s\n", formatExpiryWithDirection(creds.ExpiresAt))
	}
	if !creds.HasRefreshToken() {
		outPrint("  %s\n", text.FgYellow.Sprint("No refresh token issued; re-login required on expiry."))
	}

	return nil
}
