// Package notifications pushes export events to ntfy.
//
// The topic comes from config.toml (or NTFY_TOPIC) and the service degrades
// to a no-op when it is unset. Completed exports and failures are gated
// separately by the notifications.exports and notifications.errors toggles.
package notifications
