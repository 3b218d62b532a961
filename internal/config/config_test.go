package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"wrapped/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("WRAPPED_OUTPUT_DIR", "")
	t.Setenv("NTFY_TOPIC", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, "Pictures", "wrapped")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, ".local", "share", "wrapped") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if cfg.Export.TargetWidth != 1080 || cfg.Export.TargetHeight != 1920 {
		t.Fatalf("unexpected target: %dx%d", cfg.Export.TargetWidth, cfg.Export.TargetHeight)
	}
	if cfg.Export.SecondsPerFrame != 3 {
		t.Fatalf("unexpected seconds per frame: %v", cfg.Export.SecondsPerFrame)
	}
	if cfg.Export.Backend != config.BackendCanvas {
		t.Fatalf("unexpected backend: %q", cfg.Export.Backend)
	}
	if cfg.Share.FileShare != config.CapabilityAuto {
		t.Fatalf("unexpected file share mode: %q", cfg.Share.FileShare)
	}
	if len(cfg.Share.CancelExitCodes) != 1 || cfg.Share.CancelExitCodes[0] != 130 {
		t.Fatalf("unexpected cancel exit codes: %v", cfg.Share.CancelExitCodes)
	}
	if cfg.SettleTimeout().Seconds() != 5 {
		t.Fatalf("unexpected settle timeout: %v", cfg.SettleTimeout())
	}
	if got := cfg.HistoryPath(); got != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("unexpected history path: %q", got)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := Config{
		Paths: Paths{
			OutputDir: "~/exports",
		},
		Export: Export{
			PeriodLabel:  "2024",
			TargetWidth:  720,
			TargetHeight: 1280,
			Backend:      "Browser",
		},
		Share: Share{
			FileShare:    "yes",
			ShareCommand: "share-tool {file}",
		},
		Logging: Logging{Format: "JSON", Level: "DEBUG"},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "exports") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Export.PeriodLabel != "2024" {
		t.Fatalf("unexpected period label: %q", cfg.Export.PeriodLabel)
	}
	if cfg.Export.Backend != config.BackendBrowser {
		t.Fatalf("expected backend normalized to browser, got %q", cfg.Export.Backend)
	}
	if cfg.Share.FileShare != config.CapabilityOn {
		t.Fatalf("expected file share on, got %q", cfg.Share.FileShare)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
	if cfg.Encoder.Codec != "libx264" {
		t.Fatalf("expected default codec preserved, got %q", cfg.Encoder.Codec)
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "odd width",
			mutate: func(c *config.Config) { c.Export.TargetWidth = 1081 },
			want:   "must be even",
		},
		{
			name:   "zero height",
			mutate: func(c *config.Config) { c.Export.TargetHeight = 0 },
			want:   "export.target_height must be positive",
		},
		{
			name:   "negative seconds",
			mutate: func(c *config.Config) { c.Export.SecondsPerFrame = -1 },
			want:   "export.seconds_per_frame",
		},
		{
			name:   "unknown backend",
			mutate: func(c *config.Config) { c.Export.Backend = "gpu" },
			want:   "export.backend",
		},
		{
			name:   "share on without command",
			mutate: func(c *config.Config) { c.Share.FileShare = config.CapabilityOn },
			want:   "share.share_command",
		},
		{
			name:   "bad capability mode",
			mutate: func(c *config.Config) { c.Share.LinkShare = "sometimes" },
			want:   "share.link_share",
		},
		{
			name:   "crf out of range",
			mutate: func(c *config.Config) { c.Encoder.CRF = 60 },
			want:   "encoder.crf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("Load(sample) exists=%v err=%v", exists, err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = ""

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.ScratchDir, cfg.Paths.StateDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}

// Config mirrors the TOML layout for test fixtures.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Export  Export  `toml:"export"`
	Share   Share   `toml:"share"`
	Logging Logging `toml:"logging"`
}

type Paths struct {
	OutputDir string `toml:"output_dir,omitempty"`
}

type Export struct {
	PeriodLabel  string `toml:"period_label,omitempty"`
	TargetWidth  int    `toml:"target_width,omitempty"`
	TargetHeight int    `toml:"target_height,omitempty"`
	Backend      string `toml:"backend,omitempty"`
}

type Share struct {
	FileShare    string `toml:"file_share,omitempty"`
	ShareCommand string `toml:"share_command,omitempty"`
}

type Logging struct {
	Format string `toml:"format,omitempty"`
	Level  string `toml:"level,omitempty"`
}
