package preflight

import (
	"context"
	"strings"

	"wrapped/internal/config"
)

// CheckSourceFromConfig evaluates the statistics backend from config and
// connectivity. A local --input file makes the backend optional, so callers
// only run this for live fetches.
func CheckSourceFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Statistics backend"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Source.BaseURL) == "" {
		return Result{Name: name, Detail: "Missing URL"}
	}
	return CheckSource(ctx, cfg.Source.BaseURL)
}

// CheckNotificationsFromConfig reports whether ntfy delivery is configured.
func CheckNotificationsFromConfig(cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	var events []string
	if cfg.Notifications.Exports {
		events = append(events, "exports")
	}
	if cfg.Notifications.Errors {
		events = append(events, "errors")
	}
	if len(events) == 0 {
		return Result{Name: name, Passed: true, Detail: "Topic set, all events muted"}
	}
	return Result{Name: name, Passed: true, Detail: "ntfy (" + strings.Join(events, ", ") + ")"}
}
