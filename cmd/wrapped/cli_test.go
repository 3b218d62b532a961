package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"wrapped/internal/config"
	"wrapped/internal/history"
	"wrapped/internal/services"
	"wrapped/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	statsPath  string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("NTFY_TOPIC", "")

	configPath := filepath.Join(base, "config.toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	statsPath := filepath.Join(base, "stats.json")
	testsupport.WriteStats(t, statsPath, testsupport.SampleStats())

	return &cliTestEnv{cfg: cfg, configPath: configPath, statsPath: statsPath}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestConfigShowPrintsEffectiveValues(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "target_width = 108")
	requireContains(t, out, env.cfg.Paths.OutputDir)
}

func TestPanelsListsCards(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "--input", env.statsPath, "panels")
	if err != nil {
		t.Fatalf("panels: %v", err)
	}
	for _, id := range []string{"stats", "most-played", "mechanics"} {
		requireContains(t, out, id)
	}
}

func TestPanelsRequiresStatisticsSource(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env, "panels")
	if err == nil {
		t.Fatal("expected error without --input or --user")
	}
	requireContains(t, err.Error(), "--input")
}

func TestImageExportWritesPNGAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "--input", env.statsPath, "--user", "alice", "image", "--id", "mechanics")
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	requireContains(t, out, "Saved "+env.cfg.Paths.OutputDir)

	entries, err := os.ReadDir(env.cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".png") {
		t.Fatalf("expected one png, got %v", entries)
	}
	if !strings.Contains(entries[0].Name(), "alice") {
		t.Fatalf("expected subject in filename, got %q", entries[0].Name())
	}

	out, _, err = runCLI(t, env, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "image")
	requireContains(t, out, string(history.StatusSucceeded))
	requireContains(t, out, "1 exports: 1 succeeded")
}

func TestImageExportRejectsOutOfRangePanel(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env, "--input", env.statsPath, "image", "--panel", "9")
	if err == nil {
		t.Fatal("expected error for missing panel")
	}
	if hint := errorHint(err); hint != services.Hint(services.ErrCaptureTargetMissing) {
		t.Fatalf("unexpected hint %q", hint)
	}
}

func TestCheckReportsEnvironment(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	out, _, err := runCLI(t, env, "check", "--offline")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "Output directory")
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, "Share files")
	requireContains(t, out, "skipped (--offline)")
	requireContains(t, out, "Disabled")
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications disabled")
}

func TestErrorHintOnlyForClassifiedErrors(t *testing.T) {
	if hint := errorHint(os.ErrNotExist); hint != "" {
		t.Fatalf("expected no hint, got %q", hint)
	}
	wrapped := services.Wrap(services.ErrEncoderUnavailable, "encode", "available", "loading", nil)
	if errorHint(wrapped) == "" {
		t.Fatal("expected hint for encoder error")
	}
}

func TestLogsFiltersByJob(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithLogDir())
	logPath := filepath.Join(env.cfg.Paths.LogDir, "wrapped.log")
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	content := "2026-01-02T03:04:05Z INFO [export aaaa1111] export started\n" +
		"2026-01-02T03:04:06Z INFO [export bbbb2222] export started\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, env, "logs", "--job", "bbbb2222")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "bbbb2222")
	if strings.Contains(out, "aaaa1111") {
		t.Fatalf("unexpected line for other job:\n%s", out)
	}
}
