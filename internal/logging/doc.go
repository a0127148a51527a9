// Package logging assembles structured slog loggers and formatting helpers used
// across iCandy.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context helpers so build code can tag log lines with the run ID.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// the same fields (component, event_type, error_hint, impact) as the rest of
// the system.
package logging
