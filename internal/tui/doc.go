// Package tui is the interactive card viewer.
//
// The viewer shows the active panel as text, moves through the carousel with
// the arrow keys and starts image or video exports. Navigation is ignored
// while an export owns the carousel. Export progress arrives through a Feed,
// which the session registers as an export observer and a log status sink.
package tui
