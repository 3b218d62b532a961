// Package services defines shared utilities consumed by the export pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp export job IDs, stage names, panel IDs and
//     correlation identifiers for logging.
//   - Structured error markers (capture, encoder and dispatch failures plus
//     the generic validation/configuration/tool markers) and the Wrap helper
//     that keeps both the marker and the cause visible to errors.Is.
//   - Hint and Retryable, which turn a marker into the user-facing next step.
package services
