package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"wrapped/internal/config"
)

const userAgent = "Wrapped-Go/0.1.0"

// ExportSummary describes a finished export for notification purposes.
type ExportSummary struct {
	Kind     string
	Subject  string
	Filename string
	Outcome  string
	Path     string
	Frames   int
	Bytes    int
	Elapsed  time.Duration
}

// Service defines the notification surface exposed to the export manager.
type Service interface {
	NotifyExportCompleted(ctx context.Context, summary ExportSummary) error
	NotifyShareFallback(ctx context.Context, filename, path string) error
	NotifyExportFailed(ctx context.Context, kind string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		exports:  cfg.Notifications.Exports,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	exports  bool
	errors   bool
}

func (n *ntfyService) NotifyExportCompleted(ctx context.Context, summary ExportSummary) error {
	if !n.exports {
		return nil
	}
	kind := strings.TrimSpace(summary.Kind)
	if kind == "" {
		kind = "export"
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "🎁 %s %s: %s", titleCase(kind), summary.Outcome, strings.TrimSpace(summary.Filename))
	if summary.Frames > 1 {
		fmt.Fprintf(&builder, "\n%d cards", summary.Frames)
	}
	if summary.Bytes > 0 {
		fmt.Fprintf(&builder, "\nSize: %s", humanize.Bytes(uint64(summary.Bytes)))
	}
	if summary.Path != "" {
		fmt.Fprintf(&builder, "\nSaved to: %s", summary.Path)
	}
	if summary.Elapsed > 0 {
		fmt.Fprintf(&builder, "\nTook %s", summary.Elapsed.Round(100*time.Millisecond))
	}

	data := payload{
		title:   "Wrapped - Export Complete",
		message: builder.String(),
		tags:    []string{"wrapped", kind, "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyShareFallback(ctx context.Context, filename, path string) error {
	if !n.errors {
		return nil
	}
	data := payload{
		title:   "Wrapped - Saved Instead",
		message: fmt.Sprintf("Sharing %s failed, saved to %s", strings.TrimSpace(filename), strings.TrimSpace(path)),
		tags:    []string{"wrapped", "share", "fallback"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyExportFailed(ctx context.Context, kind string, err error) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Export failed")
	if kind = strings.TrimSpace(kind); kind != "" {
		builder.WriteString(" (")
		builder.WriteString(kind)
		builder.WriteString(")")
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Wrapped - Error",
		message:  builder.String(),
		tags:     []string{"wrapped", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Wrapped - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"wrapped", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type noopService struct{}

func (noopService) NotifyExportCompleted(context.Context, ExportSummary) error { return nil }
func (noopService) NotifyShareFallback(context.Context, string, string) error  { return nil }
func (noopService) NotifyExportFailed(context.Context, string, error) error    { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
