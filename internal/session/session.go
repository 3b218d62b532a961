package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"wrapped/internal/capability"
	"wrapped/internal/carousel"
	"wrapped/internal/config"
	"wrapped/internal/dispatch"
	"wrapped/internal/encode"
	"wrapped/internal/export"
	"wrapped/internal/fonts"
	"wrapped/internal/history"
	"wrapped/internal/logging"
	"wrapped/internal/notifications"
	"wrapped/internal/panels"
	"wrapped/internal/preflight"
	"wrapped/internal/raster"
	"wrapped/internal/raster/browser"
	"wrapped/internal/services"
	"wrapped/internal/settle"
	"wrapped/internal/stats"
	"wrapped/internal/surface"
)

// DefaultSubject names exports when no user is given.
const DefaultSubject = "player"

// Options adjusts how a session is assembled.
type Options struct {
	// Subject is the user the statistics belong to.
	Subject string
	// Out receives alerts and manual save instructions. Defaults to stderr.
	Out io.Writer
	// Alerter replaces the alerter that writes to Out.
	Alerter dispatch.Alerter
	// Observers receive export job snapshots.
	Observers []func(export.Job)
	// DisableHistory skips the sqlite ledger.
	DisableHistory bool
	// EncoderOptions are passed to encode.New.
	EncoderOptions []encode.Option
	// Capabilities overrides the probed capability flags.
	Capabilities *dispatch.Capabilities
}

// Session is one loaded statistics set with everything needed to view and
// export it.
type Session struct {
	Config       *config.Config
	Subject      string
	Registry     *panels.Registry
	Carousel     *carousel.Controller
	Surface      *surface.Surface
	Fonts        *fonts.Book
	Settler      *settle.Settler
	Rasterizer   *raster.Rasterizer
	Encoder      *encode.Encoder
	Dispatcher   *dispatch.Dispatcher
	History      *history.Store
	Exports      *export.Manager
	Capabilities capability.Report

	logger     *slog.Logger
	loader     *settle.HTTPLoader
	browser    *browser.Backend
	cancelInit context.CancelFunc
	initDone   chan struct{}
}

// Open builds a session for st. The encoder probes ffmpeg in the background;
// video exports report ErrEncoderUnavailable until that finishes.
func Open(ctx context.Context, cfg *config.Config, st *stats.Statistics, opts Options, logger *slog.Logger) (*Session, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "session", "open", "config is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "session", "open", "prepare directories", err)
	}
	if opts.Out == nil {
		opts.Out = os.Stderr
	}
	subject := strings.TrimSpace(opts.Subject)
	if subject == "" {
		subject = DefaultSubject
	}

	s := &Session{
		Config:   cfg,
		Subject:  subject,
		logger:   logging.NewComponentLogger(logger, "session"),
		initDone: make(chan struct{}),
	}
	s.reportPreflight()

	registry, err := panels.Build(st)
	if err != nil {
		return nil, err
	}
	ctrl, err := carousel.New(registry.Len())
	if err != nil {
		return nil, err
	}
	s.Registry = registry
	s.Carousel = ctrl
	s.Fonts = fonts.NewBook(cfg.Paths.FontsDir, logger)
	s.Surface = surface.New(registry, ctrl, panels.Env{
		Subject: subject,
		Period:  cfg.Export.PeriodLabel,
		Text:    s.Fonts,
	}, logger)

	s.loader = settle.NewHTTPLoader(time.Duration(cfg.Source.RequestTimeout)*time.Second, logger)
	s.Settler = settle.New(s.loader, s.Fonts, logger, settle.WithQuietPeriod(cfg.SettleQuiet()))

	var backend raster.Backend
	switch cfg.Export.Backend {
	case config.BackendBrowser:
		s.browser = browser.New(browser.Options{Bin: cfg.Browser.Bin, Headless: cfg.Browser.Headless}, logger)
		backend = s.browser
	default:
		backend = raster.NewCanvasBackend(s.Fonts, logger)
	}
	s.Rasterizer = raster.New(backend, logger)

	s.Encoder = encode.New(encode.OptionsFromConfig(cfg), logger, opts.EncoderOptions...)
	initCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelInit = cancel
	go func() {
		defer close(s.initDone)
		_ = s.Encoder.Init(initCtx)
	}()

	s.Capabilities = capability.Probe(cfg)
	if opts.Capabilities != nil {
		s.Capabilities.Capabilities = *opts.Capabilities
		s.Capabilities.Reasons = append(s.Capabilities.Reasons, "capabilities overridden by caller")
	}
	s.Dispatcher = newDispatcher(cfg, opts.Out, opts.Alerter, logger)

	if !opts.DisableHistory {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			logging.WarnWithContext(s.logger, "export history unavailable", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the history database to recreate it"),
				logging.String(logging.FieldImpact, "exports will not be recorded"),
			)
		} else {
			s.History = store
			if n, err := store.MarkInterrupted(ctx); err == nil && n > 0 {
				s.logger.Info("closed out interrupted exports", logging.Int("count", int(n)))
			}
		}
	}

	deps := export.Deps{
		Registry:   registry,
		Carousel:   ctrl,
		Surface:    s.Surface,
		Settler:    s.Settler,
		Rasterizer: s.Rasterizer,
		Encoder:    s.Encoder,
		Dispatcher: s.Dispatcher,
		Notifier:   notifications.NewService(cfg),
	}
	if s.History != nil {
		deps.History = s.History
	}
	var exportOpts []export.Option
	for _, fn := range opts.Observers {
		exportOpts = append(exportOpts, export.WithObserver(fn))
	}
	s.Exports, err = export.New(deps, export.Options{
		Subject:         subject,
		Period:          cfg.Export.PeriodLabel,
		TargetWidth:     cfg.Export.TargetWidth,
		TargetHeight:    cfg.Export.TargetHeight,
		SecondsPerFrame: cfg.Export.SecondsPerFrame,
		SettleTimeout:   cfg.SettleTimeout(),
		LockPath:        cfg.LockPath(),
		Capabilities:    s.Capabilities.Capabilities,
	}, logger, exportOpts...)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	s.logger.Info("session ready",
		logging.String("subject", subject),
		logging.Int("panels", registry.Len()),
		logging.String("backend", s.Rasterizer.Backend()),
		logging.Bool("share_files", s.Capabilities.Capabilities.CanShareFiles),
		logging.Bool("share_links", s.Capabilities.Capabilities.CanShareLinks),
		logging.Bool("touch_only", s.Capabilities.Capabilities.TouchOnlySave),
	)
	return s, nil
}

func newDispatcher(cfg *config.Config, out io.Writer, alerter dispatch.Alerter, logger *slog.Logger) *dispatch.Dispatcher {
	if alerter == nil {
		alerter = dispatch.NewWriterAlerter(out)
	}
	opts := []dispatch.Option{dispatch.WithAlerter(alerter)}
	if cfg.Share.ShareCommand != "" || cfg.Share.LinkShareCommand != "" {
		opts = append(opts, dispatch.WithSharer(dispatch.NewCommandSharer(
			cfg.Share.ShareCommand,
			cfg.Share.LinkShareCommand,
			cfg.Share.CancelExitCodes,
			cfg.Paths.ScratchDir,
			logger,
		)))
	}
	if cfg.Share.OpenCommand != "" {
		opts = append(opts, dispatch.WithOpener(dispatch.NewViewerOpener(cfg.Share.OpenCommand, cfg.Paths.ScratchDir, out, logger)))
	}
	return dispatch.New(dispatch.NewDirDownloader(cfg.Paths.OutputDir), logger, opts...)
}

func (s *Session) reportPreflight() {
	for _, r := range preflight.Failed(preflight.RunAll(s.Config)) {
		logging.WarnWithContext(s.logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "run 'wrapped check' for details"),
		)
	}
}

// EncoderReady is closed once the background encoder probe has finished.
func (s *Session) EncoderReady() <-chan struct{} {
	return s.initDone
}

// ExportCurrent exports the visible panel as an image.
func (s *Session) ExportCurrent(ctx context.Context) (export.Job, error) {
	return s.Exports.ExportImage(ctx, s.Carousel.Index())
}

// Close releases every resource the session holds. It waits for the
// background encoder probe.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	if s.cancelInit != nil {
		s.cancelInit()
		<-s.initDone
	}
	var errs []error
	if s.Surface != nil {
		s.Surface.Close()
	}
	if s.Settler != nil {
		s.Settler.Close()
	}
	if s.loader != nil {
		s.loader.CloseIdleConnections()
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if s.History != nil {
		if err := s.History.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close history: %w", err))
		}
	}
	return errors.Join(errs...)
}
