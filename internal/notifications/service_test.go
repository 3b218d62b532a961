package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wrapped/internal/config"
	"wrapped/internal/notifications"
)

type capturedRequest struct {
	method   string
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, <-chan capturedRequest) {
	t.Helper()
	requests := make(chan capturedRequest, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests <- capturedRequest{
			method:   r.Method,
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, requests
}

func newConfig(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	return &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	svc := notifications.NewService(newConfig(""))
	if err := svc.NotifyExportFailed(context.Background(), "video", errors.New("boom")); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected nil config to yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  []string
		expectTags     string
		expectPriority string
	}{
		{
			name: "video completed",
			send: func(s notifications.Service) error {
				return s.NotifyExportCompleted(context.Background(), notifications.ExportSummary{
					Kind:     "video",
					Filename: "alice-2025-wrapped.mp4",
					Outcome:  "downloaded",
					Path:     "/tmp/out/alice-2025-wrapped.mp4",
					Frames:   5,
					Bytes:    2_500_000,
					Elapsed:  3 * time.Second,
				})
			},
			expectTitle: "Wrapped - Export Complete",
			expectMessage: []string{
				"🎁 Video downloaded: alice-2025-wrapped.mp4",
				"5 cards",
				"Size: 2.5 MB",
				"Saved to: /tmp/out/alice-2025-wrapped.mp4",
			},
			expectTags: "wrapped,video,completed",
		},
		{
			name: "share fallback",
			send: func(s notifications.Service) error {
				return s.NotifyShareFallback(context.Background(), "a.png", "/out/a.png")
			},
			expectTitle:   "Wrapped - Saved Instead",
			expectMessage: []string{"Sharing a.png failed, saved to /out/a.png"},
			expectTags:    "wrapped,share,fallback",
		},
		{
			name: "failure",
			send: func(s notifications.Service) error {
				return s.NotifyExportFailed(context.Background(), "video", errors.New("encoder unavailable"))
			},
			expectTitle:    "Wrapped - Error",
			expectMessage:  []string{"❌ Export failed (video): encoder unavailable"},
			expectTags:     "wrapped,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test notification",
			send:           func(s notifications.Service) error { return s.TestNotification(context.Background()) },
			expectTitle:    "Wrapped - Test",
			expectMessage:  []string{"Notification system test"},
			expectTags:     "wrapped,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, requests := newCaptureServer(t)
			svc := notifications.NewService(newConfig(server.URL))
			if err := tc.send(svc); err != nil {
				t.Fatalf("send returned error: %v", err)
			}
			got := <-requests
			if got.method != http.MethodPost {
				t.Fatalf("unexpected method: %s", got.method)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("title = %q, want %q", got.title, tc.expectTitle)
			}
			for _, fragment := range tc.expectMessage {
				if !strings.Contains(got.body, fragment) {
					t.Fatalf("body %q missing %q", got.body, fragment)
				}
			}
			if got.tags != tc.expectTags {
				t.Fatalf("tags = %q, want %q", got.tags, tc.expectTags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("priority = %q, want %q", got.priority, tc.expectPriority)
			}
		})
	}
}

func TestNtfyServiceHonoursEventToggles(t *testing.T) {
	server, requests := newCaptureServer(t)
	cfg := newConfig(server.URL)
	cfg.Notifications.Exports = false
	cfg.Notifications.Errors = false
	svc := notifications.NewService(cfg)

	if err := svc.NotifyExportCompleted(context.Background(), notifications.ExportSummary{Kind: "image"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.NotifyExportFailed(context.Background(), "image", errors.New("x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.NotifyShareFallback(context.Background(), "a", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case req := <-requests:
		t.Fatalf("expected muted events, got request %+v", req)
	default:
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "topic throttled", http.StatusTooManyRequests)
	}))
	defer server.Close()

	err := notifications.NewService(newConfig(server.URL)).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected 429 error, got %v", err)
	}
}
