// Package preflight provides readiness checks for the filesystem paths,
// external binaries and services that wrapped depends on.
//
// These checks run in two contexts:
//   - The export session calls RunAll once at startup and logs any failures
//     so a broken ffmpeg install surfaces before the user asks for a video.
//   - The CLI "wrapped check" command prints every result, adding the
//     statistics backend check when a live fetch is configured.
//
// Optional binaries that are missing are reported as passing with a note.
package preflight
