// Package raster captures settled panels as fixed-size frames.
//
// Capture measures the panel, renders it off-viewport through a Backend at
// an oversampling scale, then letterboxes the result onto the target canvas
// with a uniform scale. Every frame it returns has exactly the requested
// dimensions. The default backend paints with gogpu/gg; the browser
// subpackage renders through headless Chromium.
package raster
