package scene

import (
	"errors"
	"image"
	"sync"
)

// ImageState is the load lifecycle of an image node.
type ImageState int

const (
	ImagePending ImageState = iota
	ImageLoaded
	ImageErrored
)

func (s ImageState) String() string {
	switch s {
	case ImagePending:
		return "pending"
	case ImageLoaded:
		return "loaded"
	case ImageErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// ErrNoSource marks image nodes that were created without a URL.
var ErrNoSource = errors.New("image has no source")

// ImageSource is the remote dependency of an image node. It resolves exactly
// once to loaded or errored; errored images paint their fallback tile.
type ImageSource struct {
	URL           string
	FallbackLabel string
	FallbackColor string

	mu    sync.Mutex
	state ImageState
	img   image.Image
	err   error
	done  chan struct{}
}

// NewImageSource creates a pending source. An empty url resolves to the
// fallback immediately.
func NewImageSource(url, fallbackLabel, fallbackColor string) *ImageSource {
	s := &ImageSource{
		URL:           url,
		FallbackLabel: fallbackLabel,
		FallbackColor: fallbackColor,
		done:          make(chan struct{}),
	}
	if url == "" {
		s.Resolve(nil, ErrNoSource)
	}
	return s
}

// Resolve records the terminal state. Later calls are ignored and report false.
func (s *ImageSource) Resolve(img image.Image, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != ImagePending {
		return false
	}
	if err == nil && img == nil {
		err = ErrNoSource
	}
	if err != nil {
		s.state = ImageErrored
		s.err = err
	} else {
		s.state = ImageLoaded
		s.img = img
	}
	close(s.done)
	return true
}

// State returns the current lifecycle state.
func (s *ImageSource) State() ImageState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Image returns the decoded image once loaded.
func (s *ImageSource) Image() (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img, s.state == ImageLoaded
}

// Err returns the load error for errored sources.
func (s *ImageSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed when the source reaches a terminal state.
func (s *ImageSource) Done() <-chan struct{} {
	return s.done
}
