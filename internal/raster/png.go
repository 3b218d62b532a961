package raster

import (
	"bytes"
	"image/png"

	"wrapped/internal/services"
)

// EncodePNG encodes a frame as PNG.
func EncodePNG(f Frame) ([]byte, error) {
	if f.Pixels == nil {
		return nil, services.Wrap(services.ErrValidation, "raster", "encode png", "frame has no pixels", nil)
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, f.Pixels); err != nil {
		return nil, services.Wrap(services.ErrTransient, "raster", "encode png", "", err)
	}
	return buf.Bytes(), nil
}
