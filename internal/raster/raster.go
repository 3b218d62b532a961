package raster

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"golang.org/x/image/draw"

	"wrapped/internal/logging"
	"wrapped/internal/scene"
	"wrapped/internal/services"
)

var (
	ErrCaptureTargetMissing = services.ErrCaptureTargetMissing
	ErrCaptureBackendError  = services.ErrCaptureBackendError
)

// Frame is a captured panel at exactly the requested target size.
type Frame struct {
	Pixels *image.RGBA
	Width  int
	Height int
}

// Host is an off-viewport render surface sized for one capture.
type Host interface {
	Paint(ctx context.Context, root *scene.Node) (image.Image, error)
	Close() error
}

// Backend opens render hosts. width and height are the panel's natural size
// in CSS pixels; scale is the device pixel ratio the host renders at.
type Backend interface {
	Name() string
	Open(ctx context.Context, width, height int, scale float64) (Host, error)
}

// Rasterizer captures panels into fixed-size frames.
type Rasterizer struct {
	backend Backend
	logger  *slog.Logger
}

// New constructs a Rasterizer over backend.
func New(backend Backend, logger *slog.Logger) *Rasterizer {
	return &Rasterizer{
		backend: backend,
		logger:  logging.NewComponentLogger(logger, "raster"),
	}
}

// Backend returns the name of the active backend.
func (r *Rasterizer) Backend() string {
	if r.backend == nil {
		return ""
	}
	return r.backend.Name()
}

// Capture renders root at its natural size, oversampled so the intermediate
// image is at least as wide as the target, then letterboxes it onto a
// targetWidth x targetHeight canvas.
func (r *Rasterizer) Capture(ctx context.Context, root *scene.Node, targetWidth, targetHeight int) (Frame, error) {
	if targetWidth <= 0 || targetHeight <= 0 {
		return Frame{}, services.Wrap(services.ErrValidation, "raster", "capture", fmt.Sprintf("invalid target %dx%d", targetWidth, targetHeight), nil)
	}
	if root == nil {
		return Frame{}, services.Wrap(ErrCaptureTargetMissing, "raster", "capture", "panel root is not mounted", nil)
	}
	if r.backend == nil {
		return Frame{}, services.Wrap(ErrCaptureBackendError, "raster", "capture", "no raster backend configured", nil)
	}
	logger := logging.WithContext(ctx, r.logger)
	start := time.Now()

	w, h := scene.Measure(root)
	scale := math.Max(1, float64(targetWidth)/float64(w))

	img, err := r.paint(ctx, root, w, h, scale)
	if err != nil {
		return Frame{}, err
	}

	bounds := img.Bounds()
	iw, ih := bounds.Dx(), bounds.Dy()
	if iw <= 0 || ih <= 0 {
		return Frame{}, services.Wrap(ErrCaptureBackendError, "raster", "capture", "backend produced an empty image", nil)
	}

	var frame Frame
	if iw == targetWidth && ih == targetHeight {
		frame = Frame{Pixels: toRGBA(img), Width: targetWidth, Height: targetHeight}
	} else {
		frame = Compose(img, targetWidth, targetHeight)
	}

	logger.Debug("panel captured",
		logging.String("backend", r.backend.Name()),
		logging.Int("natural_width", w),
		logging.Int("natural_height", h),
		logging.Float64("scale", scale),
		logging.Int("intermediate_width", iw),
		logging.Int("intermediate_height", ih),
		logging.Duration("elapsed", time.Since(start)),
	)
	return frame, nil
}

// paint opens a host, paints root and always closes the host. Backend
// panics are reported as backend errors.
func (r *Rasterizer) paint(ctx context.Context, root *scene.Node, w, h int, scale float64) (img image.Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			img = nil
			err = services.Wrap(ErrCaptureBackendError, "raster", "paint", fmt.Sprintf("backend panic: %v", rec), nil)
		}
	}()

	host, err := r.backend.Open(ctx, w, h, scale)
	if err != nil {
		return nil, services.Wrap(ErrCaptureBackendError, "raster", "open host", r.backend.Name(), err)
	}
	defer func() {
		if cerr := host.Close(); cerr != nil {
			r.logger.Debug("render host close failed", logging.Error(cerr))
		}
	}()

	img, err = host.Paint(ctx, root)
	if err != nil {
		return nil, services.Wrap(ErrCaptureBackendError, "raster", "paint", r.backend.Name(), err)
	}
	if img == nil {
		return nil, services.Wrap(ErrCaptureBackendError, "raster", "paint", "backend returned no image", nil)
	}
	return img, nil
}

// Compose scales src uniformly onto a transparent target canvas, centered.
// Whatever falls outside the canvas is clipped.
func Compose(src image.Image, targetWidth, targetHeight int) Frame {
	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	b := src.Bounds()
	p := Fit(b.Dx(), b.Dy(), targetWidth, targetHeight)
	draw.CatmullRom.Scale(dst, p.Rect(), src, b, draw.Over, nil)
	return Frame{Pixels: dst, Width: targetWidth, Height: targetHeight}
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
