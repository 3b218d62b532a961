package browser

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"wrapped/internal/logging"
	"wrapped/internal/raster"
	"wrapped/internal/scene"
)

const rootSelector = "#wrapped-root"

// Options configures the Chromium backend.
type Options struct {
	Bin         string
	Headless    bool
	LoadTimeout time.Duration
}

// Backend renders scene trees as HTML in headless Chromium and screenshots
// the root element at the requested device scale factor.
type Backend struct {
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	launch   *launcher.Launcher
	browser  *rod.Browser
	startErr error
}

// New creates a backend. The browser starts on the first Open.
func New(opts Options, logger *slog.Logger) *Backend {
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 15 * time.Second
	}
	return &Backend{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "browser"),
		now:    time.Now,
	}
}

// Name implements raster.Backend.
func (b *Backend) Name() string { return "browser" }

// Open implements raster.Backend.
func (b *Backend) Open(ctx context.Context, width, height int, scale float64) (raster.Host, error) {
	browser, err := b.ensureBrowser()
	if err != nil {
		return nil, err
	}
	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: scale,
		Mobile:            false,
	}).Call(page); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("set device metrics: %w", err)
	}
	return &host{backend: b, page: page}, nil
}

// Close shuts down the browser if it was started.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.launch != nil {
		b.launch.Cleanup()
		b.launch = nil
	}
	return err
}

func (b *Backend) ensureBrowser() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}
	if b.startErr != nil {
		return nil, b.startErr
	}

	l := launcher.New().Headless(b.opts.Headless)
	if b.opts.Bin != "" {
		l = l.Bin(b.opts.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		b.startErr = fmt.Errorf("launch chromium: %w", err)
		return nil, b.startErr
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		b.startErr = fmt.Errorf("connect to chromium: %w", err)
		return nil, b.startErr
	}
	b.launch = l
	b.browser = browser
	b.logger.Info("chromium started", logging.String("control_url", controlURL))
	return browser, nil
}

type host struct {
	backend *Backend
	page    *rod.Page
}

func (h *host) Close() error {
	return h.page.Close()
}

func (h *host) Paint(ctx context.Context, root *scene.Node) (image.Image, error) {
	doc, err := RenderHTML(root, h.backend.now())
	if err != nil {
		return nil, err
	}
	page := h.page.Context(ctx).Timeout(h.backend.opts.LoadTimeout)
	if err := page.SetDocumentContent(doc); err != nil {
		return nil, fmt.Errorf("set document: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}
	if _, err := page.Eval(`() => document.fonts.ready.then(() => true)`); err != nil {
		return nil, fmt.Errorf("wait fonts: %w", err)
	}
	el, err := page.Element(rootSelector)
	if err != nil {
		return nil, fmt.Errorf("find root: %w", err)
	}
	data, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return img, nil
}
