// Package dispatch delivers finished images and videos.
//
// Dispatcher picks a path from the platform Capabilities: native file share,
// a viewer with manual save instructions on touch-only platforms, or a
// direct download into the output directory. A cancelled share is a normal
// outcome. Any other share or viewer failure falls back to a download so a
// successful capture is never lost, and the user is told it happened.
package dispatch
