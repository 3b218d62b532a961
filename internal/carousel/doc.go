// Package carousel implements the single-card-at-a-time panel controller.
//
// Navigation is synchronous and total: Next at the last panel and Previous at
// the first are no-ops, GoTo clamps. An export job takes a Lease to drive the
// index itself; while the lease is held user navigation is ignored and
// subscribers see Locked so the viewer can render disabled controls.
package carousel
