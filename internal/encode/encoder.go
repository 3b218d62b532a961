package encode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"wrapped/internal/config"
	"wrapped/internal/logging"
	"wrapped/internal/media/ffprobe"
	"wrapped/internal/raster"
	"wrapped/internal/services"
)

// ErrEncoderUnavailable re-exports the pipeline marker.
var ErrEncoderUnavailable = services.ErrEncoderUnavailable

type commandRunner func(ctx context.Context, name string, args ...string) error
type probeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)
type lookPathFunc func(file string) (string, error)

// State is the encoder backend lifecycle for the session.
type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures slideshow assembly.
type Options struct {
	FFmpegBinary  string
	FFprobeBinary string
	Codec         string
	PixelFormat   string
	Preset        string
	FrameRate     int
	CRF           int
	ScratchDir    string
}

// OptionsFromConfig maps the encoder and path sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FFmpegBinary:  cfg.Encoder.FFmpegBinary,
		FFprobeBinary: cfg.Encoder.FFprobeBinary,
		Codec:         cfg.Encoder.Codec,
		PixelFormat:   cfg.Encoder.PixelFormat,
		Preset:        cfg.Encoder.Preset,
		FrameRate:     cfg.Encoder.FrameRate,
		CRF:           cfg.Encoder.CRF,
		ScratchDir:    cfg.Paths.ScratchDir,
	}
}

// Video is an assembled slideshow.
type Video struct {
	Data     []byte
	Duration time.Duration
	Frames   int
	Width    int
	Height   int
}

// Encoder assembles captured frames into an H.264 slideshow with ffmpeg.
type Encoder struct {
	opts     Options
	logger   *slog.Logger
	run      commandRunner
	probe    probeFunc
	lookPath lookPathFunc

	initOnce sync.Once
	ready    chan struct{}

	mu      sync.RWMutex
	state   State
	initErr error
}

// Option customizes an Encoder.
type Option func(*Encoder)

// WithCommandRunner injects a custom command runner (primarily for tests).
func WithCommandRunner(r commandRunner) Option {
	return func(e *Encoder) {
		if r != nil {
			e.run = r
		}
	}
}

// WithProbe overrides the ffprobe inspection used to verify output.
func WithProbe(p probeFunc) Option {
	return func(e *Encoder) {
		if p != nil {
			e.probe = p
		}
	}
}

// WithLookPath overrides binary discovery.
func WithLookPath(fn lookPathFunc) Option {
	return func(e *Encoder) {
		if fn != nil {
			e.lookPath = fn
		}
	}
}

// New constructs an encoder in the Loading state. Call Init once per
// session, typically in the background.
func New(opts Options, logger *slog.Logger, options ...Option) *Encoder {
	if opts.FFmpegBinary == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if opts.FFprobeBinary == "" {
		opts.FFprobeBinary = "ffprobe"
	}
	if opts.Codec == "" {
		opts.Codec = "libx264"
	}
	if opts.PixelFormat == "" {
		opts.PixelFormat = "yuv420p"
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = 30
	}
	e := &Encoder{
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "encoder"),
		run:      defaultCommandRunner,
		probe:    ffprobe.Inspect,
		lookPath: exec.LookPath,
		ready:    make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Init probes the ffmpeg backend. Only the first call does work; later calls
// return the recorded outcome.
func (e *Encoder) Init(ctx context.Context) error {
	e.initOnce.Do(func() {
		err := e.initialize(ctx)
		e.mu.Lock()
		if err != nil {
			e.state = StateFailed
			e.initErr = err
		} else {
			e.state = StateReady
		}
		e.mu.Unlock()
		close(e.ready)

		if err != nil {
			logging.WarnWithContext(e.logger, "video encoder unavailable", "encoder_init_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "install ffmpeg or set encoder.ffmpeg_binary"),
				logging.String(logging.FieldImpact, "video export disabled for this session"),
			)
			return
		}
		e.logger.Info("video encoder ready", logging.String("ffmpeg", e.opts.FFmpegBinary))
	})
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.initErr
}

func (e *Encoder) initialize(ctx context.Context) error {
	for _, bin := range []string{e.opts.FFmpegBinary, e.opts.FFprobeBinary} {
		if _, err := e.lookPath(bin); err != nil {
			return services.Wrap(services.ErrExternalTool, "encode", "init", fmt.Sprintf("%s not found", bin), err)
		}
	}
	if err := e.run(ctx, e.opts.FFmpegBinary, "-hide_banner", "-version"); err != nil {
		return services.Wrap(services.ErrExternalTool, "encode", "init", "ffmpeg -version failed", err)
	}
	return nil
}

// Ready is closed once Init has finished, successfully or not.
func (e *Encoder) Ready() <-chan struct{} { return e.ready }

// State returns the backend lifecycle state.
func (e *Encoder) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Available reports whether Encode can run now. Callers check it before
// capturing any frame.
func (e *Encoder) Available() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	switch e.state {
	case StateReady:
		return nil
	case StateFailed:
		return services.Wrap(ErrEncoderUnavailable, "encode", "available", "encoder failed to initialize", e.initErr)
	default:
		return services.Wrap(ErrEncoderUnavailable, "encode", "available", "encoder is still loading", nil)
	}
}

// Encode assembles frames into a slideshow where each frame is shown for
// secondsPerFrame. Scratch files are removed on every path and no bytes are
// returned on failure.
func (e *Encoder) Encode(ctx context.Context, frames []raster.Frame, secondsPerFrame float64) (Video, error) {
	if err := e.Available(); err != nil {
		return Video{}, err
	}
	width, height, err := validateFrames(frames, secondsPerFrame)
	if err != nil {
		return Video{}, err
	}
	logger := logging.WithContext(ctx, e.logger)
	start := time.Now()

	if e.opts.ScratchDir != "" {
		if err := os.MkdirAll(e.opts.ScratchDir, 0o755); err != nil {
			return Video{}, services.Wrap(services.ErrConfiguration, "encode", "scratch dir", e.opts.ScratchDir, err)
		}
	}
	dir, err := os.MkdirTemp(e.opts.ScratchDir, "encode-*")
	if err != nil {
		return Video{}, services.Wrap(services.ErrTransient, "encode", "scratch dir", "", err)
	}
	defer func() {
		if rerr := os.RemoveAll(dir); rerr != nil {
			logger.Debug("scratch cleanup failed", logging.String("dir", dir), logging.Error(rerr))
		}
	}()

	names := make([]string, len(frames))
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return Video{}, err
		}
		data, err := raster.EncodePNG(frame)
		if err != nil {
			return Video{}, err
		}
		names[i] = FrameName(i)
		if err := os.WriteFile(filepath.Join(dir, names[i]), data, 0o644); err != nil {
			return Video{}, services.Wrap(services.ErrTransient, "encode", "write frame", names[i], err)
		}
	}

	listPath := filepath.Join(dir, "frames.ffconcat")
	if err := os.WriteFile(listPath, []byte(ConcatList(names, secondsPerFrame)), 0o644); err != nil {
		return Video{}, services.Wrap(services.ErrTransient, "encode", "write concat list", "", err)
	}

	expected := float64(len(frames)) * secondsPerFrame
	outPath := filepath.Join(dir, "slideshow.tmp.mp4")
	args := e.buildArgs(listPath, outPath, expected)
	logger.Debug("executing ffmpeg", logging.Int("frames", len(frames)), logging.String("args", strings.Join(args, " ")))
	if err := e.run(ctx, e.opts.FFmpegBinary, args...); err != nil {
		return Video{}, services.Wrap(services.ErrExternalTool, "encode", "ffmpeg", "slideshow assembly failed", err)
	}
	if _, err := os.Stat(outPath); err != nil {
		return Video{}, services.Wrap(services.ErrExternalTool, "encode", "ffmpeg", "ffmpeg did not produce output", err)
	}

	duration, err := e.verify(ctx, outPath, expected, width, height)
	if err != nil {
		return Video{}, err
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return Video{}, services.Wrap(services.ErrTransient, "encode", "read output", "", err)
	}

	logger.Info("slideshow encoded",
		logging.String(logging.FieldEventType, "encode_complete"),
		logging.Int("frames", len(frames)),
		logging.Duration("video_duration", duration),
		logging.Int("bytes", len(data)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return Video{Data: data, Duration: duration, Frames: len(frames), Width: width, Height: height}, nil
}

// buildArgs caps the output at total seconds; the repeated last concat entry
// would otherwise add its default image duration.
func (e *Encoder) buildArgs(listPath, outPath string, total float64) []string {
	fps := strconv.Itoa(e.opts.FrameRate)
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-vf", "fps=" + fps + ",format=" + e.opts.PixelFormat,
		"-c:v", e.opts.Codec,
	}
	if e.opts.Preset != "" {
		args = append(args, "-preset", e.opts.Preset)
	}
	args = append(args,
		"-crf", strconv.Itoa(e.opts.CRF),
		"-pix_fmt", e.opts.PixelFormat,
		"-r", fps,
		"-t", strconv.FormatFloat(total, 'f', 6, 64),
		"-movflags", "+faststart",
		outPath,
	)
	return args
}

// verify checks the assembled file's duration is within one frame interval
// of the expected total and that its dimensions match the frames.
func (e *Encoder) verify(ctx context.Context, path string, expected float64, width, height int) (time.Duration, error) {
	result, err := e.probe(ctx, e.opts.FFprobeBinary, path)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "encode", "ffprobe", "verify slideshow", err)
	}
	video, ok := result.VideoStream()
	if !ok {
		return 0, services.Wrap(services.ErrValidation, "encode", "verify", "output has no video stream", nil)
	}
	if video.Width != 0 && (video.Width != width || video.Height != height) {
		return 0, services.Wrap(services.ErrValidation, "encode", "verify",
			fmt.Sprintf("output is %dx%d, expected %dx%d", video.Width, video.Height, width, height), nil)
	}
	got := result.DurationSeconds()
	tolerance := 1 / float64(e.opts.FrameRate)
	if math.IsNaN(got) || math.Abs(got-expected) > tolerance+1e-6 {
		return 0, services.Wrap(services.ErrValidation, "encode", "verify",
			fmt.Sprintf("duration %.3fs, expected %.3fs", got, expected), nil)
	}
	return time.Duration(got * float64(time.Second)), nil
}

func validateFrames(frames []raster.Frame, secondsPerFrame float64) (int, int, error) {
	if len(frames) == 0 {
		return 0, 0, services.Wrap(services.ErrValidation, "encode", "validate", "no frames to encode", nil)
	}
	if secondsPerFrame <= 0 || math.IsNaN(secondsPerFrame) || math.IsInf(secondsPerFrame, 0) {
		return 0, 0, services.Wrap(services.ErrValidation, "encode", "validate", "seconds per frame must be positive", nil)
	}
	w, h := frames[0].Width, frames[0].Height
	if w <= 0 || h <= 0 || w%2 != 0 || h%2 != 0 {
		return 0, 0, services.Wrap(services.ErrValidation, "encode", "validate", fmt.Sprintf("frame size %dx%d must be positive and even", w, h), nil)
	}
	for i, f := range frames {
		if f.Width != w || f.Height != h || f.Pixels == nil {
			return 0, 0, services.Wrap(services.ErrValidation, "encode", "validate", fmt.Sprintf("frame %d is %dx%d, expected %dx%d", i, f.Width, f.Height, w, h), nil)
		}
	}
	return w, h, nil
}

// FrameName returns the sequence-numbered file name of frame i.
func FrameName(i int) string {
	return fmt.Sprintf("frame-%05d.png", i+1)
}

// ConcatList renders an ffconcat script that shows each file for
// secondsPerFrame. The last entry is repeated so its duration is honored;
// the encoder trims the repeat with -t.
func ConcatList(names []string, secondsPerFrame float64) string {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	dur := strconv.FormatFloat(secondsPerFrame, 'f', 6, 64)
	for _, name := range names {
		fmt.Fprintf(&b, "file '%s'\nduration %s\n", name, dur)
	}
	if len(names) > 0 {
		fmt.Fprintf(&b, "file '%s'\n", names[len(names)-1])
	}
	return b.String()
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
