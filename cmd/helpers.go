package cmd

import (
	"fmt"
	"os"
	"time"

	"authkit/internal/client"
	"authkit/internal/config"
	"authkit/internal/credstore"
	"authkit/internal/events"
	"authkit/internal/refresh"
	"authkit/pkg/logging"

	"github.com/jedib0t/go-pretty/v6/text"
)

// app bundles the wired components a subcommand operates on.
type app struct {
	cfg         config.AuthkitConfig
	store       *credstore.Store
	router      *events.Router
	coordinator *refresh.Coordinator
	client      *client.Client
}

// buildApp loads the configuration, initializes logging, and wires the
// credential store, refresh coordinator, failure router, and request
// pipeline together.
func buildApp() (*app, error) {
	path := configPath
	if path == "" {
		path = config.GetDefaultConfigPathOrPanic()
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Init(logging.ParseLevel(cfg.Log.Level), os.Stderr)

	store, err := credstore.NewStore(credstore.Config{
		StorageDir: cfg.Auth.StorageDir,
		FileMode:   true,
	})
	if err != nil {
		return nil, err
	}

	router := events.NewRouter(store)
	coordinator := refresh.NewCoordinator(store, cfg.Auth.TokenURL)
	c := client.NewClient(cfg.API.BaseURL, store, coordinator, router)

	return &app{
		cfg:         cfg,
		store:       store,
		router:      router,
		coordinator: coordinator,
		client:      c,
	}, nil
}

// outPrint writes informational output unless --quiet is set.
func outPrint(format string, args ...interface{}) {
	if quiet {
		return
	}
	fmt.Printf(format, args...)
}

// outPrintln writes an informational line unless --quiet is set.
func outPrintln(msg string) {
	if quiet {
		return
	}
	fmt.Println(msg)
}

// formatExpiryWithDirection renders a token expiry with a relative duration,
// colored by whether it is already in the past.
func formatExpiryWithDirection(expiresAt time.Time) string {
	absolute := expiresAt.Local().Format("2006-01-02 15:04:05")
	remaining := time.Until(expiresAt).Round(time.Second)

	if remaining < 0 {
		return fmt.Sprintf("%s (%s)", absolute, text.FgYellow.Sprintf("expired %s ago", -remaining))
	}
	return fmt.Sprintf("%s (in %s)", absolute, remaining)
}
