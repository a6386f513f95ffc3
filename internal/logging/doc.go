// Package logging assembles structured slog loggers and formatting helpers
// used across mrimark.
//
// It owns the console and JSON handlers, level and output plumbing, and a
// per-run log file tee. Context helpers tag lines with the run identifier and
// the labeling pass, so every message a classify run emits can be traced back
// to its history row. A no-op logger is provided for tests and wiring code
// that cannot fail.
package logging
