package settle

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"

	"wrapped/internal/logging"
	"wrapped/internal/services"
)

const maxImageBytes = 16 << 20

// HTTPLoader loads thumbnails over HTTP(S) or from local paths and caches
// decoded images by URL for the session.
type HTTPLoader struct {
	client *http.Client
	logger *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]image.Image
}

// NewHTTPLoader returns a loader with the given per-request timeout.
func NewHTTPLoader(timeout time.Duration, logger *slog.Logger) *HTTPLoader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPLoader{
		client: &http.Client{Timeout: timeout},
		logger: logging.NewComponentLogger(logger, "image-loader"),
		cache:  make(map[string]image.Image),
	}
}

// Load implements ImageLoader.
func (l *HTTPLoader) Load(ctx context.Context, rawURL string) (image.Image, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, services.Wrap(services.ErrValidation, "settle", "load image", "empty url", nil)
	}
	l.mu.RLock()
	img, ok := l.cache[rawURL]
	l.mu.RUnlock()
	if ok {
		return img, nil
	}

	v, err, _ := l.group.Do(rawURL, func() (any, error) {
		img, err := l.fetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cache[rawURL] = img
		l.mu.Unlock()
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

func (l *HTTPLoader) fetch(ctx context.Context, rawURL string) (image.Image, error) {
	data, err := l.read(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "settle", "decode image", rawURL, err)
	}
	l.logger.Debug("image loaded",
		logging.String("url", rawURL),
		logging.String("format", format),
		logging.Int("bytes", len(data)),
	)
	return img, nil
}

func (l *HTTPLoader) read(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" {
		return readFile(rawURL)
	}
	switch parsed.Scheme {
	case "file":
		return readFile(parsed.Path)
	case "http", "https":
	default:
		return nil, services.Wrap(services.ErrValidation, "settle", "load image", fmt.Sprintf("unsupported scheme %q", parsed.Scheme), nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "settle", "build request", rawURL, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "settle", "fetch image", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, services.Wrap(services.ErrNotFound, "settle", "fetch image", rawURL, nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, services.Wrap(services.ErrTransient, "settle", "fetch image", fmt.Sprintf("%s: status %d", rawURL, resp.StatusCode), nil)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "settle", "read image", rawURL, err)
	}
	return data, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "settle", "read image", path, err)
		}
		return nil, services.Wrap(services.ErrTransient, "settle", "read image", path, err)
	}
	return data, nil
}

// CloseIdleConnections releases pooled connections.
func (l *HTTPLoader) CloseIdleConnections() {
	l.client.CloseIdleConnections()
}
