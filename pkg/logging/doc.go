// Package logging provides the structured logging sink for authkit.
//
// It is a thin, subsystem-tagged wrapper over log/slog. Components log
// through the package-level Debug/Info/Warn/Error functions with a
// subsystem name so entries can be filtered per component:
//
//	logging.Info("RefreshCoordinator", "token refreshed, expires in %s", d)
//	logging.Error("CredStore", err, "failed to persist credentials")
//
// Logging is fire-and-forget: a failure to emit a log entry never affects
// the outcome of the operation being logged.
package logging
