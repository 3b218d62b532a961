// Package logging assembles structured slog loggers and formatting helpers used
// across wrapped.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so export code can automatically
// tag log lines with job IDs, stages, and panel IDs. The package also provides
// a no-op logger for tests and a tee handler the interactive viewer uses to
// mirror log lines into its status bar.
package logging
