package config

const (
	defaultConfigPath         = "~/.config/wrapped/config.toml"
	defaultOutputDir          = "~/Pictures/wrapped"
	defaultStateDir           = "~/.local/share/wrapped"
	defaultLogDir             = "~/.local/share/wrapped/logs"
	defaultPeriodLabel        = "2025"
	defaultTargetWidth        = 1080
	defaultTargetHeight       = 1920
	defaultSecondsPerFrame    = 3.0
	defaultSettleTimeoutMS    = 5000
	defaultSettleQuietMS      = 80
	defaultBackend            = BackendCanvas
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultCodec              = "libx264"
	defaultPixelFormat        = "yuv420p"
	defaultFrameRate          = 30
	defaultPreset             = "veryfast"
	defaultCRF                = 20
	defaultOpenCommand        = "xdg-open"
	defaultSourceBaseURL      = "https://bgg-app-backend-1.onrender.com/api"
	defaultSourceTimeout      = 60
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultShareCancelCode    = 130
	defaultBrowserHeadless    = true
	defaultNotifyExports      = true
	defaultNotifyErrors       = true
	defaultCapabilityModeAuto = CapabilityAuto
)

// Raster backends.
const (
	BackendCanvas  = "canvas"
	BackendBrowser = "browser"
)

// Capability modes for the share section. Auto derives the flag from whether
// the matching command is configured and runnable.
const (
	CapabilityAuto = "auto"
	CapabilityOn   = "on"
	CapabilityOff  = "off"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			ScratchDir: defaultScratchDir(),
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		Export: Export{
			PeriodLabel:     defaultPeriodLabel,
			TargetWidth:     defaultTargetWidth,
			TargetHeight:    defaultTargetHeight,
			SecondsPerFrame: defaultSecondsPerFrame,
			SettleTimeoutMS: defaultSettleTimeoutMS,
			SettleQuietMS:   defaultSettleQuietMS,
			Backend:         defaultBackend,
		},
		Encoder: Encoder{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Codec:         defaultCodec,
			PixelFormat:   defaultPixelFormat,
			FrameRate:     defaultFrameRate,
			Preset:        defaultPreset,
			CRF:           defaultCRF,
		},
		Share: Share{
			FileShare:       defaultCapabilityModeAuto,
			LinkShare:       defaultCapabilityModeAuto,
			OpenCommand:     defaultOpenCommand,
			CancelExitCodes: []int{defaultShareCancelCode},
		},
		Source: Source{
			BaseURL:        defaultSourceBaseURL,
			RequestTimeout: defaultSourceTimeout,
		},
		Browser: Browser{
			Headless: defaultBrowserHeadless,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Exports:        defaultNotifyExports,
			Errors:         defaultNotifyErrors,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
