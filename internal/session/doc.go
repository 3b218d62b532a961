// Package session assembles the export engine for one statistics set.
//
// Open builds the panel registry, the carousel and rendering surface, the
// settler, the rasterizer for the configured backend, the encoder (probed in
// the background), the dispatcher with its capability sheet, the history
// ledger and the export manager. The CLI and the interactive viewer both
// work through a Session.
package session
