// Package encode assembles captured frames into a constant frame rate H.264
// slideshow using ffmpeg's concat demuxer, then verifies the result with
// ffprobe.
//
// The backend is probed once per session by Init. Until it reports Ready,
// Available returns ErrEncoderUnavailable so callers can refuse a video
// export before capturing anything.
package encode
