package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateShare(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"source.request_timeout":        c.Source.RequestTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateExport() error {
	if err := ensurePositiveMap(map[string]int{
		"export.target_width":      c.Export.TargetWidth,
		"export.target_height":     c.Export.TargetHeight,
		"export.settle_timeout_ms": c.Export.SettleTimeoutMS,
	}); err != nil {
		return err
	}
	if c.Export.TargetWidth%2 != 0 || c.Export.TargetHeight%2 != 0 {
		return fmt.Errorf("export.target_width and export.target_height must be even (got %dx%d)", c.Export.TargetWidth, c.Export.TargetHeight)
	}
	if c.Export.SecondsPerFrame <= 0 {
		return errors.New("export.seconds_per_frame must be positive")
	}
	if c.Export.SettleQuietMS < 0 {
		return errors.New("export.settle_quiet_ms must be >= 0")
	}
	switch c.Export.Backend {
	case BackendCanvas, BackendBrowser:
	default:
		return fmt.Errorf("export.backend must be %q or %q (got %q)", BackendCanvas, BackendBrowser, c.Export.Backend)
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.FrameRate <= 0 {
		return errors.New("encoder.frame_rate must be positive")
	}
	if c.Encoder.CRF < 0 || c.Encoder.CRF > 51 {
		return errors.New("encoder.crf must be between 0 and 51")
	}
	return nil
}

func (c *Config) validateShare() error {
	for key, mode := range map[string]string{
		"share.file_share": c.Share.FileShare,
		"share.link_share": c.Share.LinkShare,
	} {
		switch mode {
		case CapabilityAuto, CapabilityOn, CapabilityOff:
		default:
			return fmt.Errorf("%s must be one of auto, on, off (got %q)", key, mode)
		}
	}
	if c.Share.FileShare == CapabilityOn && c.Share.ShareCommand == "" {
		return errors.New("share.share_command must be set when share.file_share is on")
	}
	if c.Share.LinkShare == CapabilityOn && c.Share.LinkShareCommand == "" {
		return errors.New("share.link_share_command must be set when share.link_share is on")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
