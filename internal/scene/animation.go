package scene

import (
	"sync"
	"time"
)

// Timing is the mutable part of an animation.
type Timing struct {
	Duration time.Duration
	Delay    time.Duration
}

// Animation is an entry transition: the node fades in from FromOpacity and
// slides up by OffsetY over Duration, starting Delay after Start.
type Animation struct {
	FromOpacity float64
	OffsetY     float64

	mu     sync.Mutex
	timing Timing
	start  time.Time
}

// NewAnimation returns an entry animation with the given timing.
func NewAnimation(duration, delay time.Duration, fromOpacity, offsetY float64) *Animation {
	return &Animation{
		FromOpacity: fromOpacity,
		OffsetY:     offsetY,
		timing:      Timing{Duration: duration, Delay: delay},
	}
}

// Start marks the moment the node was mounted.
func (a *Animation) Start(at time.Time) {
	a.mu.Lock()
	a.start = at
	a.mu.Unlock()
}

// Timing returns the current timing.
func (a *Animation) Timing() Timing {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timing
}

// SetTiming replaces the timing.
func (a *Animation) SetTiming(t Timing) {
	a.mu.Lock()
	a.timing = t
	a.mu.Unlock()
}

// Progress returns the eased completion in [0,1] at now. Zero-duration
// animations are always complete.
func (a *Animation) Progress(now time.Time) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timing.Duration <= 0 && a.timing.Delay <= 0 {
		return 1
	}
	if a.start.IsZero() {
		return 0
	}
	elapsed := now.Sub(a.start) - a.timing.Delay
	if elapsed <= 0 {
		return 0
	}
	if a.timing.Duration <= 0 || elapsed >= a.timing.Duration {
		return 1
	}
	t := float64(elapsed) / float64(a.timing.Duration)
	return 1 - (1-t)*(1-t)
}

// Opacity returns the node opacity at now.
func (a *Animation) Opacity(now time.Time) float64 {
	p := a.Progress(now)
	return a.FromOpacity + (1-a.FromOpacity)*p
}

// Offset returns the vertical offset at now.
func (a *Animation) Offset(now time.Time) float64 {
	return a.OffsetY * (1 - a.Progress(now))
}

// Animations collects every animated node under root.
func Animations(root *Node) []*Animation {
	var out []*Animation
	Walk(root, func(n *Node) bool {
		if n.Anim != nil {
			out = append(out, n.Anim)
		}
		return true
	})
	return out
}

// StartAnimations stamps every animation under root with at.
func StartAnimations(root *Node, at time.Time) {
	for _, anim := range Animations(root) {
		anim.Start(at)
	}
}
