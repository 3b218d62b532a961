package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	ScratchDir string `toml:"scratch_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
	FontsDir   string `toml:"fonts_dir"`
}

// Export contains capture and slideshow settings.
type Export struct {
	PeriodLabel     string  `toml:"period_label"`
	TargetWidth     int     `toml:"target_width"`
	TargetHeight    int     `toml:"target_height"`
	SecondsPerFrame float64 `toml:"seconds_per_frame"`
	SettleTimeoutMS int     `toml:"settle_timeout_ms"`
	SettleQuietMS   int     `toml:"settle_quiet_ms"`
	Backend         string  `toml:"backend"`
}

// Encoder contains ffmpeg slideshow assembly settings.
type Encoder struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	Codec         string `toml:"codec"`
	PixelFormat   string `toml:"pixel_format"`
	FrameRate     int    `toml:"frame_rate"`
	Preset        string `toml:"preset"`
	CRF           int    `toml:"crf"`
}

// Share contains the platform capability declarations and the commands that
// implement them.
type Share struct {
	FileShare        string `toml:"file_share"`
	LinkShare        string `toml:"link_share"`
	TouchOnlySave    bool   `toml:"touch_only_save"`
	ShareCommand     string `toml:"share_command"`
	LinkShareCommand string `toml:"link_share_command"`
	OpenCommand      string `toml:"open_command"`
	CancelExitCodes  []int  `toml:"cancel_exit_codes"`
}

// Source contains the statistics backend settings.
type Source struct {
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
	ExcludeBGA     bool   `toml:"exclude_bga"`
}

// Browser contains settings for the headless browser raster backend.
type Browser struct {
	Bin      string `toml:"bin"`
	Headless bool   `toml:"headless"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Exports        bool   `toml:"exports"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for wrapped.
//
// Configuration sections by subsystem:
//   - Paths: output, scratch, state, log and font directories
//   - Export: target resolution, settle timing, raster backend
//   - Encoder: ffmpeg/ffprobe binaries and slideshow encode parameters
//   - Share: capability flags and the share/open commands
//   - Source: statistics backend
//   - Browser: headless Chromium backend
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Export        Export        `toml:"export"`
	Encoder       Encoder       `toml:"encoder"`
	Share         Share         `toml:"share"`
	Source        Source        `toml:"source"`
	Browser       Browser       `toml:"browser"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("wrapped.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories exports write into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.ScratchDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the export ledger database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the path of the single-export lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "export.lock")
}

// SettleTimeout returns the per-panel settle budget.
func (c *Config) SettleTimeout() time.Duration {
	return time.Duration(c.Export.SettleTimeoutMS) * time.Millisecond
}

// SettleQuiet returns the pause observed after dependencies resolve.
func (c *Config) SettleQuiet() time.Duration {
	return time.Duration(c.Export.SettleQuietMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultScratchDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "wrapped", "scratch")
	}
	return filepath.Join(os.TempDir(), "wrapped")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
