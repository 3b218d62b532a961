// Package config loads, normalizes, and validates wrapped configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// WRAPPED_OUTPUT_DIR and NTFY_TOPIC. The Config type centralizes the export
// target, encoder, share capability and notification settings so the CLI and
// viewer discover them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
