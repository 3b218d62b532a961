// Package export runs image and video exports of the card carousel.
//
// A Manager owns at most one active job. A second request while a job runs
// (in this process, or in another process holding the lock file) fails
// immediately with ErrExportInProgress and never touches the active job.
//
// Image exports capture one panel and dispatch a PNG. Video exports check
// that the encoder is ready, take the carousel lease, walk every panel in
// registry order (settle, capture), encode the frames into a slideshow and
// dispatch the MP4. The lease restores the user's panel on every exit path,
// and captured frames are dropped once the encoder returns.
//
// Job snapshots are published to observers on every change so the viewer
// can disable navigation and show progress.
package export
