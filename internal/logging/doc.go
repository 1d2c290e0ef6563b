// Package logging configures structured slog output for the daemon and CLI.
//
// Two formats are supported: a compact console format for interactive use and
// JSON for log aggregation. Attr helpers and standardized field keys keep the
// worker pool's log lines queryable.
package logging
