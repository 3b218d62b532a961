package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"wrapped/internal/logging"
	"wrapped/internal/services"
)

var (
	// ErrShareCancelled is returned by a Sharer when the user declines.
	ErrShareCancelled = services.ErrDispatchCancelled
	ErrDispatchFailed = services.ErrDispatchFailed
)

// Capabilities are the platform facts supplied by the capability probe.
type Capabilities struct {
	CanShareFiles bool
	CanShareLinks bool
	TouchOnlySave bool
}

// Payload is a finished image or video.
type Payload struct {
	Filename    string
	ContentType string
	Data        []byte
	Title       string
	Text        string
}

// Outcome is the terminal result of a dispatch.
type Outcome int

const (
	OutcomeShared Outcome = iota
	OutcomeCancelled
	OutcomeManualSave
	OutcomeDownloaded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeShared:
		return "shared"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeManualSave:
		return "manual_save"
	case OutcomeDownloaded:
		return "downloaded"
	default:
		return "unknown"
	}
}

// Result describes what happened to a payload.
type Result struct {
	Outcome    Outcome
	Path       string
	FellBack   bool
	LinkShared bool
}

// Sharer hands payloads to the platform share facility.
type Sharer interface {
	ShareFile(ctx context.Context, p Payload) error
	ShareLink(ctx context.Context, title, text, link string) error
}

// Opener shows a payload in a user-visible viewer with manual save
// instructions. It returns the location that was opened.
type Opener interface {
	Open(ctx context.Context, p Payload) (string, error)
}

// Downloader saves a payload under its file name and returns the final path.
type Downloader interface {
	Save(ctx context.Context, p Payload) (string, error)
}

// Alerter tells the user something they need to know.
type Alerter interface {
	Alert(ctx context.Context, message string)
}

// Dispatcher routes finished exports according to platform capabilities.
type Dispatcher struct {
	downloader Downloader
	sharer     Sharer
	opener     Opener
	alerter    Alerter
	logger     *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSharer sets the platform share facility.
func WithSharer(s Sharer) Option { return func(d *Dispatcher) { d.sharer = s } }

// WithOpener sets the manual-save viewer.
func WithOpener(o Opener) Option { return func(d *Dispatcher) { d.opener = o } }

// WithAlerter sets the user alert channel.
func WithAlerter(a Alerter) Option { return func(d *Dispatcher) { d.alerter = a } }

// New constructs a Dispatcher. The downloader is required; it is the last
// resort for every payload.
func New(downloader Downloader, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		downloader: downloader,
		logger:     logging.NewComponentLogger(logger, "dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch delivers p. Order: native file share, manual save on touch-only
// platforms, direct download. A failure in the first two falls through to a
// download followed by an alert; a cancelled share ends the dispatch quietly.
func (d *Dispatcher) Dispatch(ctx context.Context, p Payload, caps Capabilities) (Result, error) {
	if p.Filename == "" || len(p.Data) == 0 {
		return Result{}, services.Wrap(services.ErrValidation, "dispatch", "validate", "payload needs a file name and data", nil)
	}
	logger := logging.WithContext(ctx, d.logger).With(logging.String("filename", p.Filename))

	var fallbackErr error
	switch {
	case caps.CanShareFiles:
		err := d.shareFile(ctx, p)
		if err == nil {
			logger.Info("payload shared", logging.String(logging.FieldEventType, "dispatch_shared"))
			return Result{Outcome: OutcomeShared}, nil
		}
		if errors.Is(err, ErrShareCancelled) {
			logger.Info("share cancelled by user", logging.String(logging.FieldEventType, "dispatch_cancelled"))
			return Result{Outcome: OutcomeCancelled}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		fallbackErr = err
	case caps.TouchOnlySave:
		path, err := d.open(ctx, p)
		if err == nil {
			logger.Info("payload opened for manual save",
				logging.String(logging.FieldEventType, "dispatch_manual_save"),
				logging.String("path", path),
			)
			return Result{Outcome: OutcomeManualSave, Path: path}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		fallbackErr = err
	}

	if fallbackErr != nil {
		logging.WarnWithContext(logger, "share failed; falling back to download", "dispatch_fallback",
			logging.Error(fallbackErr),
			logging.String(logging.FieldErrorHint, "check share.share_command / share.open_command"),
			logging.String(logging.FieldImpact, "output saved to the output directory instead"),
		)
	}

	path, err := d.download(ctx, p)
	if err != nil {
		if fallbackErr != nil {
			err = errors.Join(err, fallbackErr)
		}
		return Result{}, services.Wrap(ErrDispatchFailed, "dispatch", "download", p.Filename, err)
	}
	result := Result{Outcome: OutcomeDownloaded, Path: path, FellBack: fallbackErr != nil}
	logger.Info("payload saved",
		logging.String(logging.FieldEventType, "dispatch_downloaded"),
		logging.String("path", path),
		logging.Bool("fell_back", result.FellBack),
	)

	if result.FellBack && d.alerter != nil {
		d.alerter.Alert(ctx, fmt.Sprintf("Sharing didn't work, so %s was saved to %s", p.Filename, path))
	}
	if caps.CanShareLinks && !caps.CanShareFiles && d.sharer != nil {
		link := (&url.URL{Scheme: "file", Path: path}).String()
		if err := d.sharer.ShareLink(ctx, p.Title, p.Text, link); err != nil {
			if !errors.Is(err, ErrShareCancelled) {
				logger.Warn("link share failed", logging.Error(err))
			}
		} else {
			result.LinkShared = true
		}
	}
	return result, nil
}

func (d *Dispatcher) shareFile(ctx context.Context, p Payload) error {
	if d.sharer == nil {
		return errors.New("no share facility configured")
	}
	return d.sharer.ShareFile(ctx, p)
}

func (d *Dispatcher) open(ctx context.Context, p Payload) (string, error) {
	if d.opener == nil {
		return "", errors.New("no viewer configured")
	}
	return d.opener.Open(ctx, p)
}

func (d *Dispatcher) download(ctx context.Context, p Payload) (string, error) {
	if d.downloader == nil {
		return "", errors.New("no download target configured")
	}
	return d.downloader.Save(ctx, p)
}
