package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExport()
	c.normalizeEncoder()
	c.normalizeShare()
	c.normalizeSource()
	c.normalizeBrowser()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		if value, ok := os.LookupEnv("WRAPPED_OUTPUT_DIR"); ok && strings.TrimSpace(value) != "" {
			c.Paths.OutputDir = value
		} else {
			c.Paths.OutputDir = defaultOutputDir
		}
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir()
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}

	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.FontsDir, err = expandPath(strings.TrimSpace(c.Paths.FontsDir)); err != nil {
		return fmt.Errorf("paths.fonts_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExport() {
	c.Export.PeriodLabel = strings.TrimSpace(c.Export.PeriodLabel)
	if c.Export.PeriodLabel == "" {
		c.Export.PeriodLabel = defaultPeriodLabel
	}
	if c.Export.SecondsPerFrame == 0 {
		c.Export.SecondsPerFrame = defaultSecondsPerFrame
	}
	if c.Export.SettleTimeoutMS == 0 {
		c.Export.SettleTimeoutMS = defaultSettleTimeoutMS
	}
	c.Export.Backend = strings.ToLower(strings.TrimSpace(c.Export.Backend))
	if c.Export.Backend == "" {
		c.Export.Backend = defaultBackend
	}
}

func (c *Config) normalizeEncoder() {
	c.Encoder.FFmpegBinary = strings.TrimSpace(c.Encoder.FFmpegBinary)
	if c.Encoder.FFmpegBinary == "" {
		c.Encoder.FFmpegBinary = defaultFFmpegBinary
	}
	c.Encoder.FFprobeBinary = strings.TrimSpace(c.Encoder.FFprobeBinary)
	if c.Encoder.FFprobeBinary == "" {
		c.Encoder.FFprobeBinary = defaultFFprobeBinary
	}
	c.Encoder.Codec = strings.TrimSpace(c.Encoder.Codec)
	if c.Encoder.Codec == "" {
		c.Encoder.Codec = defaultCodec
	}
	c.Encoder.PixelFormat = strings.TrimSpace(c.Encoder.PixelFormat)
	if c.Encoder.PixelFormat == "" {
		c.Encoder.PixelFormat = defaultPixelFormat
	}
	if c.Encoder.FrameRate == 0 {
		c.Encoder.FrameRate = defaultFrameRate
	}
	c.Encoder.Preset = strings.TrimSpace(c.Encoder.Preset)
}

func (c *Config) normalizeShare() {
	c.Share.FileShare = normalizeCapabilityMode(c.Share.FileShare)
	c.Share.LinkShare = normalizeCapabilityMode(c.Share.LinkShare)
	c.Share.ShareCommand = strings.TrimSpace(c.Share.ShareCommand)
	c.Share.LinkShareCommand = strings.TrimSpace(c.Share.LinkShareCommand)
	c.Share.OpenCommand = strings.TrimSpace(c.Share.OpenCommand)
	if c.Share.OpenCommand == "" {
		c.Share.OpenCommand = defaultOpenCommand
	}
	if c.Share.CancelExitCodes == nil {
		c.Share.CancelExitCodes = []int{defaultShareCancelCode}
	}
}

func normalizeCapabilityMode(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", CapabilityAuto:
		return CapabilityAuto
	case CapabilityOn, "true", "yes":
		return CapabilityOn
	case CapabilityOff, "false", "no":
		return CapabilityOff
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) normalizeSource() {
	c.Source.BaseURL = strings.TrimRight(strings.TrimSpace(c.Source.BaseURL), "/")
	if c.Source.BaseURL == "" {
		if value, ok := os.LookupEnv("WRAPPED_SOURCE_URL"); ok && strings.TrimSpace(value) != "" {
			c.Source.BaseURL = strings.TrimRight(strings.TrimSpace(value), "/")
		} else {
			c.Source.BaseURL = defaultSourceBaseURL
		}
	}
	if c.Source.RequestTimeout <= 0 {
		c.Source.RequestTimeout = defaultSourceTimeout
	}
}

func (c *Config) normalizeBrowser() {
	c.Browser.Bin = strings.TrimSpace(c.Browser.Bin)
	if c.Browser.Bin == "" {
		if value, ok := os.LookupEnv("ROD_BROWSER_BIN"); ok {
			c.Browser.Bin = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
