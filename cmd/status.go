package cmd

import (
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session status",
		Long: `Show whether a session is stored, when the access token expires,
and whether it can be refreshed automatically.`,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	outPrintln("Authkit Session")
	outPrint("  Endpoint:  %s\n", a.cfg.API.BaseURL)

	creds := a.store.Get()
	if creds.IsZero() {
		outPrint("  Status:    %s\n", text.FgYellow.Sprint("Not logged in"))
		outPrint("             Run: authkit login\n")
		return nil
	}

	outPrint("  Status:    %s\n", text.FgGreen.Sprint("Logged in"))
	if !creds.ExpiresAt.IsZero() {
		outPrint("  Expires:   %s\n", formatExpiryWithDirection(creds.ExpiresAt))
	}
	if creds.HasRefreshToken() {
		outPrint("  Refresh:   %s\n", text.FgGreen.Sprint("Available"))
	} else {
		outPrint("  Refresh:   %s\n", text.FgYellow.Sprint("Not available (re-login required on expiry)"))
	}

	return nil
}
