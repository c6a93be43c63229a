package cmd

import (
	"errors"
	"os"

	"authkit/internal/client"
	"authkit/internal/refresh"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
// These follow common conventions so scripts can branch on the outcome.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates authentication is required but not available.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the credential exchange failed.
	ExitCodeAuthFailed = 3
)

// rootCmd represents the base command for the authkit application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "authkit",
	Short: "Authenticated API client with automatic token refresh",
	Long: `authkit is an authenticated HTTP client for bearer-token APIs.

It stores a token pair per session, attaches the access token to every
request, and transparently refreshes it when the server answers 401,
replaying the failed request exactly once. When refresh cannot recover
the session, stored credentials are cleared and a re-login is required.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

// Global flags shared by all subcommands.
var (
	configPath string
	quiet      bool
)

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the
// application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It initializes and executes the root command, which in turn handles
// subcommands and flags. This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "authkit version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	// Session expired or never established: the caller needs to log in.
	if errors.Is(err, client.ErrSessionExpired) {
		return ExitCodeAuthRequired
	}
	if errors.Is(err, refresh.ErrNoRefreshToken) {
		return ExitCodeAuthRequired
	}

	// The token endpoint rejected an exchange (bad password, revoked grant).
	var exchangeErr *refresh.ExchangeError
	if errors.As(err, &exchangeErr) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config directory (default is $HOME/.config/authkit)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress informational output")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newRequestCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
