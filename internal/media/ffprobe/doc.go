// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and returns a Result; helper methods expose the
// duration, frame rate and frame count used to verify assembled slideshows.
package ffprobe
