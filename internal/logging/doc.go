// Package logging assembles structured slog loggers and formatting helpers used
// across traktflix components.
//
// It owns the console/JSON handlers, centralizes level and output plumbing, and
// exposes context-aware helpers so reconciliation code tags log lines with the
// activity being reconciled and the correlation ID of the user action that
// triggered it. A no-op logger is provided for tests and wiring code that
// cannot fail.
package logging
