package raster

import (
	"context"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"

	"wrapped/internal/logging"
	"wrapped/internal/scene"
)

// Faces supplies font faces to the canvas backend. fonts.Book satisfies it.
type Faces interface {
	Face(ref scene.FontRef, size float64) text.Face
	Ascent(ref scene.FontRef, size float64) float64
}

// CanvasBackend paints scene trees with the gg software rasterizer.
type CanvasBackend struct {
	faces  Faces
	logger *slog.Logger
	now    func() time.Time
}

// NewCanvasBackend returns the default in-process backend.
func NewCanvasBackend(faces Faces, logger *slog.Logger) *CanvasBackend {
	return &CanvasBackend{
		faces:  faces,
		logger: logging.NewComponentLogger(logger, "canvas"),
		now:    time.Now,
	}
}

// Name implements Backend.
func (b *CanvasBackend) Name() string { return "canvas" }

// Open implements Backend.
func (b *CanvasBackend) Open(ctx context.Context, width, height int, scale float64) (Host, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = 1
	}
	pw := max(1, int(math.Round(float64(width)*scale)))
	ph := max(1, int(math.Round(float64(height)*scale)))
	return &canvasHost{
		backend: b,
		dc:      gg.NewContext(pw, ph),
		scale:   scale,
	}, nil
}

type canvasHost struct {
	backend *CanvasBackend
	dc      *gg.Context
	scale   float64
	at      time.Time
}

func (h *canvasHost) Close() error {
	return h.dc.Close()
}

func (h *canvasHost) Paint(ctx context.Context, root *scene.Node) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.at = h.backend.now()
	if err := h.paintNode(root, 0, 0, 1); err != nil {
		return nil, err
	}
	return h.dc.Image(), nil
}

func (h *canvasHost) paintNode(n *scene.Node, ox, oy, opacity float64) error {
	x := ox + n.X
	y := oy + n.Y
	if n.Anim != nil {
		y += n.Anim.Offset(h.at)
		opacity *= n.Anim.Opacity(h.at)
	}
	if opacity <= 0 {
		return nil
	}

	switch n.Kind {
	case scene.KindBox:
		if err := h.fillRect(x, y, n.Width, n.Height, n.Radius, n.Fill, opacity); err != nil {
			return err
		}
	case scene.KindText:
		h.drawText(n, x, y, opacity)
	case scene.KindImage:
		if err := h.drawImage(n, x, y, opacity); err != nil {
			return err
		}
	}

	for _, child := range n.Children {
		if err := h.paintNode(child, x, y, opacity); err != nil {
			return err
		}
	}
	return nil
}

func (h *canvasHost) fillRect(x, y, w, hgt, radius float64, fill scene.Fill, opacity float64) error {
	if fill.Empty() || w <= 0 || hgt <= 0 {
		return nil
	}
	s := h.scale
	px, py, pw, ph := x*s, y*s, w*s, hgt*s
	if fill.Solid() {
		c := withOpacity(gg.Hex(fill.From), opacity)
		h.dc.SetRGBA(c.R, c.G, c.B, c.A)
	} else {
		h.dc.SetFillBrush(gg.NewLinearGradientBrush(px, py, px+pw, py+ph).
			AddColorStop(0, withOpacity(gg.Hex(fill.From), opacity)).
			AddColorStop(1, withOpacity(gg.Hex(fill.To), opacity)))
	}
	h.path(px, py, pw, ph, radius*s)
	return h.dc.Fill()
}

func (h *canvasHost) path(x, y, w, hgt, r float64) {
	if r > 0 {
		h.dc.DrawRoundedRectangle(x, y, w, hgt, math.Min(r, math.Min(w, hgt)/2))
		return
	}
	h.dc.DrawRectangle(x, y, w, hgt)
}

func (h *canvasHost) drawText(n *scene.Node, x, y, opacity float64) {
	if n.Text == "" || h.backend.faces == nil {
		return
	}
	s := h.scale
	size := n.Font.Size * s
	face := h.backend.faces.Face(n.Font, size)
	tw, _ := text.Measure(n.Text, face)

	px := x * s
	switch n.Align {
	case scene.AlignCenter:
		px += (n.Width*s - tw) / 2
	case scene.AlignRight:
		px += n.Width*s - tw
	}
	baseline := y*s + h.backend.faces.Ascent(n.Font, size)

	c := withOpacity(gg.Hex(textColor(n.Color)), opacity)
	h.dc.SetFont(face)
	h.dc.SetRGBA(c.R, c.G, c.B, c.A)
	h.dc.DrawString(n.Text, px, baseline)
}

func (h *canvasHost) drawImage(n *scene.Node, x, y, opacity float64) error {
	s := h.scale
	px, py, pw, ph := x*s, y*s, n.Width*s, n.Height*s
	if src := n.Image; src != nil {
		if img, ok := src.Image(); ok {
			h.dc.Push()
			h.path(px, py, pw, ph, n.Radius*s)
			h.dc.Clip()
			h.dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
				X:             px,
				Y:             py,
				DstWidth:      pw,
				DstHeight:     ph,
				Interpolation: gg.InterpBilinear,
				Opacity:       opacity,
			})
			h.dc.Pop()
			return nil
		}
	}
	return h.drawFallback(n, x, y, opacity)
}

// drawFallback paints the tile shown in place of an image that did not load.
func (h *canvasHost) drawFallback(n *scene.Node, x, y, opacity float64) error {
	color, label := "#667eea", ""
	if n.Image != nil {
		if n.Image.FallbackColor != "" {
			color = n.Image.FallbackColor
		}
		label = n.Image.FallbackLabel
	}
	if err := h.fillRect(x, y, n.Width, n.Height, n.Radius, scene.Fill{From: color}, opacity); err != nil {
		return err
	}
	if label == "" {
		return nil
	}
	size := math.Max(8, n.Height*0.3)
	h.drawText(&scene.Node{
		Kind:  scene.KindText,
		Text:  label,
		Font:  scene.FontRef{Bold: true, Size: size},
		Color: "#ffffff",
		Align: scene.AlignCenter,
		Width: n.Width,
	}, x, y+(n.Height-size*1.2)/2, opacity)
	return nil
}

func withOpacity(c gg.RGBA, opacity float64) gg.RGBA {
	c.A *= opacity
	return c
}

func textColor(hex string) string {
	if hex == "" {
		return "#ffffff"
	}
	return hex
}
