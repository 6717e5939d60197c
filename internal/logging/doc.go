// Package logging builds slog loggers for the CLI and scan engine.
//
// Two formats are supported: a compact console format for interactive
// use and JSON for machine consumption. Log output is mirrored to a file
// under the configured log directory.
package logging
