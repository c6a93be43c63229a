package cmd

import (
	"fmt"
	"strings"
	"time"

	"authkit/internal/client"

	"github.com/spf13/cobra"
)

// Request-specific flags
var (
	requestData    string
	requestHeaders []string
	requestTimeout time.Duration
)

// newRequestCmd creates the request command.
func newRequestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Perform an authenticated API request",
		Long: `Perform a single request against the configured API with the stored
session. A 401 response triggers a token refresh and one replay before
the request is reported as failed.

The response body is written to stdout; the status line goes to stderr
so the body stays pipeable.

Examples:
  authkit request GET /v1/items
  authkit request POST /v1/items --data '{"name":"example"}'
  authkit request GET /v1/slow --timeout 5s`,
		Args: cobra.ExactArgs(2),
		RunE: runRequest,
	}

	cmd.Flags().StringVarP(&requestData, "data", "d", "", "request body")
	cmd.Flags().StringArrayVarP(&requestHeaders, "header", "H", nil, "additional header in 'Name: value' form (repeatable)")
	cmd.Flags().DurationVar(&requestTimeout, "timeout", 0, "per-request timeout (default: from config)")

	return cmd
}

func runRequest(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	method := strings.ToUpper(args[0])
	path := args[1]

	req := client.NewRequest(method, path)
	if requestData != "" {
		req.Body = []byte(requestData)
	}
	req.Timeout = requestTimeout
	if req.Timeout == 0 {
		req.Timeout = time.Duration(a.cfg.API.Timeout)
	}

	for _, h := range requestHeaders {
		name, value, found := strings.Cut(h, ":")
		if !found {
			return fmt.Errorf("invalid header %q, expected 'Name: value'", h)
		}
		req.Header.Set(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	resp, err := a.client.Do(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s -> %d\n", method, path, resp.StatusCode)
	if len(resp.Body) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), string(resp.Body))
	}

	return nil
}
