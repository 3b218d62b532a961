package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"wrapped/internal/carousel"
	"wrapped/internal/dispatch"
	"wrapped/internal/encode"
	"wrapped/internal/history"
	"wrapped/internal/logging"
	"wrapped/internal/notifications"
	"wrapped/internal/panels"
	"wrapped/internal/raster"
	"wrapped/internal/scene"
	"wrapped/internal/services"
	"wrapped/internal/settle"
)

// ErrExportInProgress rejects a request while another export is running.
// Requests are never queued.
var ErrExportInProgress = errors.New("export already in progress")

// Surface exposes the mounted scene tree of the visible panel.
type Surface interface {
	Root(panelID string) (*scene.Node, bool)
}

// Settler gates capture on a panel's visual readiness.
type Settler interface {
	WithSettled(ctx context.Context, root *scene.Node, timeout time.Duration, fn func(settle.Result) error) error
}

// Capturer rasterizes a scene tree at the target resolution.
type Capturer interface {
	Capture(ctx context.Context, root *scene.Node, targetWidth, targetHeight int) (raster.Frame, error)
}

// VideoEncoder assembles captured frames into a slideshow.
type VideoEncoder interface {
	Available() error
	Encode(ctx context.Context, frames []raster.Frame, secondsPerFrame float64) (encode.Video, error)
}

// Dispatcher hands a finished payload to the user.
type Dispatcher interface {
	Dispatch(ctx context.Context, p dispatch.Payload, caps dispatch.Capabilities) (dispatch.Result, error)
}

// Ledger records job metadata. history.Store satisfies it.
type Ledger interface {
	Begin(ctx context.Context, rec history.Record) error
	SetStage(ctx context.Context, id, stage string) error
	Succeed(ctx context.Context, id string, c history.Completion) error
	Fail(ctx context.Context, id, stage string, cause error) error
}

// Deps are the collaborators an export drives. History and Notifier are
// optional.
type Deps struct {
	Registry   *panels.Registry
	Carousel   *carousel.Controller
	Surface    Surface
	Settler    Settler
	Rasterizer Capturer
	Encoder    VideoEncoder
	Dispatcher Dispatcher
	History    Ledger
	Notifier   notifications.Service
}

// Options are the per-session export parameters.
type Options struct {
	Subject         string
	Period          string
	TargetWidth     int
	TargetHeight    int
	SecondsPerFrame float64
	SettleTimeout   time.Duration
	LockPath        string
	Capabilities    dispatch.Capabilities
}

// Manager owns the single active export job.
type Manager struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
	lock   *flock.Flock
	now    func() time.Time
	newID  func() string

	mu        sync.Mutex
	active    *Job
	lease     *carousel.Lease
	last      *Job
	observers []func(Job)
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the job timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIDGenerator overrides job id generation.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// WithObserver registers fn to receive a snapshot on every job change. It
// is called outside the manager's lock.
func WithObserver(fn func(Job)) Option {
	return func(m *Manager) {
		if fn != nil {
			m.observers = append(m.observers, fn)
		}
	}
}

// New validates deps and builds a manager.
func New(deps Deps, opts Options, logger *slog.Logger, options ...Option) (*Manager, error) {
	switch {
	case deps.Registry == nil, deps.Carousel == nil, deps.Surface == nil:
		return nil, services.Wrap(services.ErrConfiguration, "export", "new manager", "registry, carousel and surface are required", nil)
	case deps.Settler == nil, deps.Rasterizer == nil, deps.Encoder == nil, deps.Dispatcher == nil:
		return nil, services.Wrap(services.ErrConfiguration, "export", "new manager", "settler, rasterizer, encoder and dispatcher are required", nil)
	}
	if opts.TargetWidth <= 0 || opts.TargetHeight <= 0 {
		return nil, services.Wrap(services.ErrValidation, "export", "new manager",
			fmt.Sprintf("invalid target %dx%d", opts.TargetWidth, opts.TargetHeight), nil)
	}
	if opts.SecondsPerFrame <= 0 {
		return nil, services.Wrap(services.ErrValidation, "export", "new manager", "seconds per frame must be positive", nil)
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(nil)
	}

	m := &Manager{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "export"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	if path := strings.TrimSpace(opts.LockPath); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "export", "new manager", "create lock directory", err)
		}
		m.lock = flock.New(path)
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Active returns the running job, if any.
func (m *Manager) Active() (Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return Job{}, false
	}
	return m.active.clone(), true
}

// Last returns the most recently finished job.
func (m *Manager) Last() (Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return Job{}, false
	}
	return m.last.clone(), true
}

// Busy reports whether an export is running.
func (m *Manager) Busy() bool {
	_, ok := m.Active()
	return ok
}

// ExportImage captures the panel at index and dispatches it as a PNG.
func (m *Manager) ExportImage(ctx context.Context, index int) (Job, error) {
	desc, ok := m.deps.Registry.At(index)
	if !ok {
		return Job{}, services.Wrap(services.ErrCaptureTargetMissing, "export", "select panel",
			fmt.Sprintf("no panel at index %d", index), nil)
	}
	job, err := m.begin(ctx, KindImage, []string{desc.ID})
	if err != nil {
		return Job{}, err
	}
	ctx = services.WithJobID(ctx, job.ID)
	return m.finish(ctx, job, m.runImage(ctx, job, index, desc))
}

// ExportVideo captures every panel in registry order and dispatches the
// assembled slideshow.
func (m *Manager) ExportVideo(ctx context.Context) (Job, error) {
	job, err := m.begin(ctx, KindVideo, m.deps.Registry.IDs())
	if err != nil {
		return Job{}, err
	}
	ctx = services.WithJobID(ctx, job.ID)
	return m.finish(ctx, job, m.runVideo(ctx, job))
}

func (m *Manager) runImage(ctx context.Context, job *Job, index int, desc panels.Descriptor) error {
	lease, err := m.acquireLease()
	if err != nil {
		return err
	}

	frame, err := m.capture(ctx, job, lease, index, desc)
	if err != nil {
		return err
	}
	lease.Restore()

	data, err := raster.EncodePNG(frame)
	if err != nil {
		return services.Wrap(services.ErrCaptureBackendError, StateCapturing.String(), "encode png", desc.ID, err)
	}
	return m.dispatch(ctx, job, dispatch.Payload{
		Filename:    dispatch.ImageFilename(m.opts.Subject, m.opts.Period, index),
		ContentType: "image/png",
		Data:        data,
		Title:       desc.Title,
		Text:        m.shareText(),
	})
}

func (m *Manager) runVideo(ctx context.Context, job *Job) error {
	// Checked before any capture so a missing encoder costs nothing.
	if err := m.deps.Encoder.Available(); err != nil {
		return err
	}

	lease, err := m.acquireLease()
	if err != nil {
		return err
	}

	all := m.deps.Registry.All()
	frames := make([]raster.Frame, 0, len(all))
	for i, desc := range all {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := m.capture(ctx, job, lease, i, desc)
		if err != nil {
			return err
		}
		frames = append(frames, frame)
	}
	lease.Restore()

	m.setState(ctx, job, StateEncoding)
	video, err := m.deps.Encoder.Encode(ctx, frames, m.opts.SecondsPerFrame)
	// Captured frames are dropped whatever the encode outcome.
	frames = nil
	if err != nil {
		return err
	}
	m.logger.Info("slideshow encoded",
		logging.String(logging.FieldJobID, job.ID),
		logging.Int("frames", video.Frames),
		logging.Duration("duration", video.Duration),
		logging.Int("bytes", len(video.Data)),
	)

	return m.dispatch(ctx, job, dispatch.Payload{
		Filename:    dispatch.VideoFilename(m.opts.Subject, m.opts.Period),
		ContentType: "video/mp4",
		Data:        video.Data,
		Title:       fmt.Sprintf("%s %s Wrapped", m.opts.Subject, m.opts.Period),
		Text:        m.shareText(),
	})
}

// acquireLease takes the carousel for the active job. finish releases it.
func (m *Manager) acquireLease() (*carousel.Lease, error) {
	lease, err := m.deps.Carousel.AcquireLease()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, StateCapturing.String(), "acquire carousel", "", err)
	}
	m.mu.Lock()
	m.lease = lease
	m.mu.Unlock()
	return lease, nil
}

func (m *Manager) capture(ctx context.Context, job *Job, lease *carousel.Lease, index int, desc panels.Descriptor) (raster.Frame, error) {
	lease.GoTo(index)
	root, ok := m.deps.Surface.Root(desc.ID)
	if !ok {
		return raster.Frame{}, services.Wrap(services.ErrCaptureTargetMissing, StateCapturing.String(), "mount panel", desc.ID, nil)
	}

	panelCtx := services.WithPanelID(ctx, desc.ID)
	logger := logging.WithContext(panelCtx, m.logger)

	var frame raster.Frame
	err := m.deps.Settler.WithSettled(panelCtx, root, m.opts.SettleTimeout, func(res settle.Result) error {
		if res.TimedOut {
			m.mutate(job, func(j *Job) { j.SettleTimeouts++ })
			logging.WarnWithContext(logger, "capturing unsettled panel", "settle_timeout",
				logging.Int("pending", res.Pending),
				logging.String(logging.FieldErrorHint, "slow thumbnails; raise export.settle_timeout_ms"),
				logging.String(logging.FieldImpact, "frame may show placeholders"),
			)
		}
		captured, err := m.deps.Rasterizer.Capture(panelCtx, root, m.opts.TargetWidth, m.opts.TargetHeight)
		if err != nil {
			return err
		}
		frame = captured
		return nil
	})
	if err != nil {
		return raster.Frame{}, err
	}
	m.mutate(job, func(j *Job) { j.Captured++ })
	logger.Debug("panel captured", logging.Int("index", index))
	return frame, nil
}

func (m *Manager) dispatch(ctx context.Context, job *Job, payload dispatch.Payload) error {
	m.mutate(job, func(j *Job) { j.Filename = payload.Filename })
	m.setState(ctx, job, StateDispatching)

	result, err := m.deps.Dispatcher.Dispatch(ctx, payload, m.opts.Capabilities)
	if err != nil {
		return err
	}
	m.mutate(job, func(j *Job) { j.Result = result })
	if result.FellBack {
		if err := m.deps.Notifier.NotifyShareFallback(context.WithoutCancel(ctx), payload.Filename, result.Path); err != nil {
			m.logger.Debug("fallback notification failed", logging.Error(err))
		}
	}
	return nil
}

func (m *Manager) shareText() string {
	return fmt.Sprintf("My %s year in board games", m.opts.Period)
}

func (m *Manager) begin(ctx context.Context, kind Kind, panelIDs []string) (*Job, error) {
	m.mu.Lock()
	if m.active != nil {
		m.mu.Unlock()
		return nil, ErrExportInProgress
	}
	if m.lock != nil {
		locked, err := m.lock.TryLock()
		if err != nil {
			m.mu.Unlock()
			return nil, services.Wrap(services.ErrConfiguration, "export", "acquire lock", m.lock.Path(), err)
		}
		if !locked {
			m.mu.Unlock()
			return nil, fmt.Errorf("%w: another wrapped process holds %s", ErrExportInProgress, m.lock.Path())
		}
	}
	job := &Job{
		ID:        m.newID(),
		Kind:      kind,
		State:     StateCapturing,
		PanelIDs:  append([]string(nil), panelIDs...),
		StartedAt: m.now(),
	}
	m.active = job
	snapshot := job.clone()
	m.mu.Unlock()

	m.logger.Info("export started",
		logging.String(logging.FieldEventType, "export_start"),
		logging.String(logging.FieldJobID, job.ID),
		logging.String("kind", string(kind)),
		logging.Int("panels", len(panelIDs)),
	)
	if m.deps.History != nil {
		rec := history.Record{
			ID:        job.ID,
			Kind:      string(kind),
			Subject:   m.opts.Subject,
			Period:    m.opts.Period,
			Stage:     StateCapturing.String(),
			PanelIDs:  panelIDs,
			StartedAt: snapshot.StartedAt,
		}
		if err := m.deps.History.Begin(context.WithoutCancel(ctx), rec); err != nil {
			m.logger.Warn("history begin failed", logging.Error(err))
		}
	}
	m.emit(snapshot)
	return job, nil
}

func (m *Manager) finish(ctx context.Context, job *Job, runErr error) (Job, error) {
	m.mu.Lock()
	lease := m.lease
	m.lease = nil
	m.mu.Unlock()
	if lease != nil {
		lease.Release()
	}

	m.mu.Lock()
	job.FinishedAt = m.now()
	if runErr != nil {
		job.FailedStage = failedStage(job.State, runErr)
		job.State = StateFailed
		job.Err = runErr
	} else {
		job.State = StateSucceeded
	}
	snapshot := job.clone()
	m.active = nil
	m.last = &snapshot
	if m.lock != nil {
		if err := m.lock.Unlock(); err != nil {
			m.logger.Warn("failed to release export lock", logging.Error(err))
		}
	}
	m.mu.Unlock()

	m.record(ctx, snapshot)
	m.emit(snapshot)
	if runErr != nil {
		return snapshot, runErr
	}
	return snapshot, nil
}

func (m *Manager) record(ctx context.Context, job Job) {
	ctx = context.WithoutCancel(ctx)
	logger := logging.WithContext(ctx, m.logger)
	cancelled := errors.Is(job.Err, context.Canceled)

	if job.Err != nil {
		attrs := []logging.Attr{
			logging.String("kind", string(job.Kind)),
			logging.Int("captured", job.Captured),
			logging.Error(job.Err),
			logging.String(logging.FieldErrorHint, services.Hint(job.Err)),
			logging.String(logging.FieldImpact, "no output was produced"),
		}
		if cancelled {
			logger.Info("export cancelled", logging.Args(attrs[:2]...)...)
		} else {
			logging.ErrorWithContext(logger, "export failed", "export_failed", attrs...)
		}
	} else {
		logger.Info("export finished",
			logging.String(logging.FieldEventType, "export_complete"),
			logging.String("kind", string(job.Kind)),
			logging.String("outcome", job.Result.Outcome.String()),
			logging.String("path", job.Result.Path),
			logging.Duration("elapsed", job.Elapsed()),
		)
	}

	if m.deps.History != nil {
		var err error
		if job.Err != nil {
			err = m.deps.History.Fail(ctx, job.ID, job.FailedStage.String(), job.Err)
		} else {
			err = m.deps.History.Succeed(ctx, job.ID, history.Completion{
				Outcome:        job.Result.Outcome.String(),
				Filename:       job.Filename,
				OutputPath:     job.Result.Path,
				FellBack:       job.Result.FellBack,
				SettleTimeouts: job.SettleTimeouts,
			})
		}
		if err != nil {
			logger.Warn("history update failed", logging.Error(err))
		}
	}

	var err error
	switch {
	case job.Err != nil && !cancelled:
		err = m.deps.Notifier.NotifyExportFailed(ctx, string(job.Kind), job.Err)
	case job.Err == nil && job.Result.Outcome != dispatch.OutcomeCancelled:
		err = m.deps.Notifier.NotifyExportCompleted(ctx, notifications.ExportSummary{
			Kind:     string(job.Kind),
			Subject:  m.opts.Subject,
			Filename: job.Filename,
			Outcome:  job.Result.Outcome.String(),
			Path:     job.Result.Path,
			Frames:   job.Captured,
			Elapsed:  job.Elapsed(),
		})
	}
	if err != nil {
		logger.Debug("export notification failed", logging.Error(err))
	}
}

func (m *Manager) setState(ctx context.Context, job *Job, state State) {
	m.mutate(job, func(j *Job) { j.State = state })
	if m.deps.History != nil {
		if err := m.deps.History.SetStage(context.WithoutCancel(ctx), job.ID, state.String()); err != nil {
			m.logger.Debug("history stage update failed", logging.Error(err))
		}
	}
}

func (m *Manager) mutate(job *Job, fn func(*Job)) {
	m.mu.Lock()
	fn(job)
	snapshot := job.clone()
	m.mu.Unlock()
	m.emit(snapshot)
}

func (m *Manager) emit(job Job) {
	for _, fn := range m.observers {
		fn(job)
	}
}

// failedStage names the pipeline step an error belongs to. Encoder
// availability is checked before capture starts but is an encoding failure.
func failedStage(current State, err error) State {
	if errors.Is(err, services.ErrEncoderUnavailable) {
		return StateEncoding
	}
	return current
}
