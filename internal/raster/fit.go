package raster

import (
	"image"
	"math"
)

// aspectTolerance is how close the two axis scales must be for the
// width-based scale to be used as-is.
const aspectTolerance = 0.01

// Placement is where scaled content lands on the target canvas.
type Placement struct {
	Scale  float64
	X, Y   int
	Width  int
	Height int
}

// Rect returns the destination rectangle. It can extend past the canvas
// when Fit crops.
func (p Placement) Rect() image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
}

// Fit places an iw x ih image on a tw x th canvas with a uniform scale,
// centered. Aspect ratios that differ by more than the tolerance are
// letterboxed on one axis. Nearly identical ratios use the width scale so
// rounding noise does not produce a one-pixel letterbox; the height may then
// overflow the canvas by up to 1% and the excess is cropped evenly from the
// top and bottom (the placement's Y is negative).
func Fit(iw, ih, tw, th int) Placement {
	if iw <= 0 || ih <= 0 || tw <= 0 || th <= 0 {
		return Placement{}
	}
	ws := float64(tw) / float64(iw)
	hs := float64(th) / float64(ih)
	s := ws
	w, h := tw, int(math.Round(float64(ih)*s))
	if math.Abs(ws-hs) > aspectTolerance {
		s = math.Min(ws, hs)
		w = min(int(math.Round(float64(iw)*s)), tw)
		h = min(int(math.Round(float64(ih)*s)), th)
	}
	w = max(w, 1)
	h = max(h, 1)
	return Placement{
		Scale:  s,
		X:      (tw - w) / 2,
		Y:      (th - h) / 2,
		Width:  w,
		Height: h,
	}
}
