// Package main hosts the wrapped CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration and a statistics set (from a
// JSON file or the analytics backend), assembles an export session and then
// lists panels, exports a single card image or the slideshow video, runs the
// interactive viewer, or reports environment health and export history.
//
// Keep this package lean: behavior lives in the internal packages and the
// commands here only parse flags, wire a session and print results.
package main
