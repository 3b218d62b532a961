package settle

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"wrapped/internal/logging"
	"wrapped/internal/scene"
)

// ImageLoader fetches and decodes a remote image.
type ImageLoader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// FontLoader makes a font face available for layout. fonts.Book satisfies it.
type FontLoader interface {
	Load(ref scene.FontRef) error
}

// Result summarizes what a panel looked like when Settle returned.
type Result struct {
	Images        int
	Loaded        int
	Failed        int
	Pending       int
	Fonts         int
	FontFallbacks int
	TimedOut      bool
	Elapsed       time.Duration
}

// Settled reports whether every dependency reached a terminal state.
func (r Result) Settled() bool { return !r.TimedOut && r.Pending == 0 }

// Settler waits for a panel's asynchronous visual dependencies.
type Settler struct {
	images ImageLoader
	fonts  FontLoader
	quiet  time.Duration
	logger *slog.Logger

	loadCtx    context.Context
	cancelLoad context.CancelFunc
	loads      sync.WaitGroup

	mu       sync.Mutex
	inflight map[*scene.ImageSource]struct{}
}

// Option configures a Settler.
type Option func(*Settler)

// WithQuietPeriod sets the pause observed after dependencies resolve.
func WithQuietPeriod(d time.Duration) Option {
	return func(s *Settler) {
		if d >= 0 {
			s.quiet = d
		}
	}
}

// New constructs a Settler. A nil font loader skips font resolution.
func New(images ImageLoader, fonts FontLoader, logger *slog.Logger, opts ...Option) *Settler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Settler{
		images:     images,
		fonts:      fonts,
		quiet:      80 * time.Millisecond,
		logger:     logging.NewComponentLogger(logger, "settle"),
		loadCtx:    ctx,
		cancelLoad: cancel,
		inflight:   make(map[*scene.ImageSource]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close cancels loads still running from timed-out settles and waits for
// them to exit.
func (s *Settler) Close() {
	s.cancelLoad()
	s.loads.Wait()
}

// Settle blocks until every image under root is loaded or errored, every
// font is resolved and the quiet period has passed, or until timeout. It
// never fails: on timeout capture proceeds with whatever has resolved and
// outstanding loads keep running in the background.
func (s *Settler) Settle(ctx context.Context, root *scene.Node, timeout time.Duration) Result {
	start := time.Now()
	sources := scene.Images(root)
	refs := scene.Fonts(root)
	result := Result{Images: len(sources), Fonts: len(refs)}

	for _, src := range sources {
		s.startLoad(src)
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	waitCtx, cancelWait := context.WithCancel(ctx)
	defer cancelWait()
	g, gctx := errgroup.WithContext(waitCtx)
	for _, src := range sources {
		g.Go(func() error {
			select {
			case <-src.Done():
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	var fallbacks int
	var fallbackMu sync.Mutex
	if s.fonts != nil {
		for _, ref := range refs {
			g.Go(func() error {
				if err := s.fonts.Load(ref); err != nil {
					fallbackMu.Lock()
					fallbacks++
					fallbackMu.Unlock()
				}
				return nil
			})
		}
	}
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
		if s.quiet > 0 {
			quiet := time.NewTimer(s.quiet)
			// A deadline inside the quiet period cuts it short; every
			// dependency has already resolved.
			select {
			case <-quiet.C:
			case <-deadline:
			case <-ctx.Done():
			}
			quiet.Stop()
		}
	case <-deadline:
		select {
		case <-done:
		default:
			result.TimedOut = true
		}
	case <-ctx.Done():
	}
	cancelWait()
	<-done

	fallbackMu.Lock()
	result.FontFallbacks = fallbacks
	fallbackMu.Unlock()
	for _, src := range sources {
		switch src.State() {
		case scene.ImageLoaded:
			result.Loaded++
		case scene.ImageErrored:
			result.Failed++
		default:
			result.Pending++
		}
	}
	result.Elapsed = time.Since(start)

	attrs := []logging.Attr{
		logging.Int("images", result.Images),
		logging.Int("loaded", result.Loaded),
		logging.Int("failed", result.Failed),
		logging.Int("fonts", result.Fonts),
		logging.Duration("elapsed", result.Elapsed),
	}
	if result.TimedOut {
		logging.WarnWithContext(s.logger, "settle timed out; capturing best effort", "settle_timeout",
			append(attrs,
				logging.Int("pending", result.Pending),
				logging.String(logging.FieldErrorHint, "raise export.settle_timeout_ms or check network access"),
				logging.String(logging.FieldImpact, "pending images render as fallbacks"),
			)...)
	} else {
		s.logger.Debug("panel settled", logging.Args(attrs...)...)
	}
	return result
}

// WithSettled freezes animations under root, settles it and runs fn. The
// freeze is released on every exit path, including a panic in fn.
func (s *Settler) WithSettled(ctx context.Context, root *scene.Node, timeout time.Duration, fn func(Result) error) error {
	guard := Freeze(root)
	defer guard.Release()
	result := s.Settle(ctx, root, timeout)
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(result)
}

func (s *Settler) startLoad(src *scene.ImageSource) {
	if src.State() != scene.ImagePending {
		return
	}
	if s.images == nil {
		src.Resolve(nil, scene.ErrNoSource)
		return
	}
	s.mu.Lock()
	if _, ok := s.inflight[src]; ok {
		s.mu.Unlock()
		return
	}
	s.inflight[src] = struct{}{}
	s.mu.Unlock()

	s.loads.Add(1)
	go func() {
		defer s.loads.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inflight, src)
			s.mu.Unlock()
		}()
		img, err := s.images.Load(s.loadCtx, src.URL)
		if err != nil {
			s.logger.Debug("image failed; using fallback",
				logging.String("url", src.URL),
				logging.Error(err),
			)
		}
		src.Resolve(img, err)
	}()
}
