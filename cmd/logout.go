package cmd

import (
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// newLogoutCmd creates the logout command.
func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Long: `Remove the stored token pair for the current session.

Logging out while already logged out is not an error.`,
		RunE: runLogout,
	}
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	if a.store.Get().IsZero() {
		outPrintln("Not logged in.")
		return nil
	}

	a.router.TriggerLogout()
	outPrint("%s Logged out.\n", text.FgGreen.Sprint("✓"))
	return nil
}
