package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wrapped/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSource_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	result := CheckSource(context.Background(), srv.URL)
	if !result.Passed {
		t.Fatalf("expected pass for 404 root, got: %s", result.Detail)
	}
}

func TestCheckSource_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	result := CheckSource(context.Background(), srv.URL)
	if result.Passed {
		t.Fatal("expected failure for 502")
	}
	if !strings.Contains(result.Detail, "502") {
		t.Fatalf("expected status in detail, got %q", result.Detail)
	}
}

func TestCheckSource_MissingURL(t *testing.T) {
	result := CheckSource(context.Background(), "  ")
	if result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.ScratchDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Share.OpenCommand = ""
	return &cfg
}

func TestRunAll_ReportsMissingEncoder(t *testing.T) {
	cfg := testConfig(t)
	cfg.Encoder.FFmpegBinary = "clearly-not-present-ffmpeg"
	cfg.Encoder.FFprobeBinary = "clearly-not-present-ffprobe"

	results := RunAll(cfg)
	if len(results) != 5 {
		t.Fatalf("expected 3 directory + 2 binary results, got %d: %+v", len(results), results)
	}
	failed := Failed(results)
	if len(failed) != 2 {
		t.Fatalf("expected ffmpeg and ffprobe to fail, got %+v", failed)
	}
	if failed[0].Name != "FFmpeg" || failed[1].Name != "FFprobe" {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_OptionalViewerPasses(t *testing.T) {
	cfg := testConfig(t)
	cfg.Share.OpenCommand = "clearly-not-present-viewer {file}"

	for _, r := range RunAll(cfg) {
		if r.Name != "Viewer" {
			continue
		}
		if !r.Passed || !strings.HasPrefix(r.Detail, "optional:") {
			t.Fatalf("expected optional pass for viewer, got %+v", r)
		}
		return
	}
	t.Fatal("expected viewer result")
}

func TestCheckSourceFromConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Source.BaseURL = srv.URL
	if r := CheckSourceFromConfig(context.Background(), cfg); !r.Passed {
		t.Fatalf("expected pass, got %+v", r)
	}
	if r := CheckSourceFromConfig(context.Background(), nil); r.Passed {
		t.Fatal("expected failure for nil config")
	}
}

func TestCheckNotificationsFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Notifications.NtfyTopic = ""
	if r := CheckNotificationsFromConfig(cfg); r.Detail != "Disabled" {
		t.Fatalf("unexpected detail: %q", r.Detail)
	}
	cfg.Notifications.NtfyTopic = "https://ntfy.sh/wrapped"
	cfg.Notifications.Errors = false
	if r := CheckNotificationsFromConfig(cfg); r.Detail != "ntfy (exports)" {
		t.Fatalf("unexpected detail: %q", r.Detail)
	}
}
