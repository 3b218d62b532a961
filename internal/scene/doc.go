// Package scene models a panel's render tree: boxes, text and images laid out
// in CSS pixels, with image load state and entry animations that the settle
// and raster stages inspect.
package scene
