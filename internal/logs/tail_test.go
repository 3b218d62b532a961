package logs_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wrapped/internal/config"
	"wrapped/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), logs.FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "b" || result.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset != 6 {
		t.Fatalf("expected offset at end of file, got %d", result.Offset)
	}
}

func TestTailFromOffset(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "b" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	result, err := logs.Tail(context.Background(), filepath.Join(t.TempDir(), "none.log"), logs.TailOptions{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestTailFiltersByJobAndLevel(t *testing.T) {
	path := writeLog(t, ""+
		"2026-01-02T03:04:05Z INFO [export 0123abcd] export started\n"+
		"2026-01-02T03:04:06Z WARN [export 0123abcd] panel settle timed out\n"+
		"2026-01-02T03:04:07Z WARN [export ffffeeee] panel settle timed out\n"+
		`{"ts":"2026-01-02T03:04:08Z","level":"error","msg":"export failed","job_id":"0123abcd-9999"}`+"\n"+
		`{"ts":"2026-01-02T03:04:09Z","level":"info","msg":"export saved","job_id":"0123abcd-9999"}`+"\n",
	)

	filter := logs.All(logs.JobFilter("0123abcd-9999"), logs.LevelFilter(slog.LevelWarn))
	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 10, Filter: filter})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("expected 2 matching lines, got %#v", result.Lines)
	}
	if result.Lines[0] != "2026-01-02T03:04:06Z WARN [export 0123abcd] panel settle timed out" {
		t.Fatalf("unexpected first line %q", result.Lines[0])
	}
}

func TestTailFollowWaits(t *testing.T) {
	path := writeLog(t, "start\n")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}

	done := make(chan logs.TailResult, 1)
	go func(offset int64) {
		res, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow tail error: %v", err)
		}
		done <- res
	}(result.Offset)

	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case res := <-done:
		if len(res.Lines) != 1 || res.Lines[0] != "later" {
			t.Fatalf("unexpected follow lines: %#v", res.Lines)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("tail follow did not return")
	}
}

func TestPath(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = ""
	if got := logs.Path(&cfg); got != "" {
		t.Fatalf("expected no path without log dir, got %q", got)
	}
	cfg.Paths.LogDir = "/var/log/wrapped"
	if got := logs.Path(&cfg); got != "/var/log/wrapped/wrapped.log" {
		t.Fatalf("unexpected path %q", got)
	}
}
