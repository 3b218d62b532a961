package settle

import (
	"sync"

	"wrapped/internal/scene"
)

type frozenTiming struct {
	anim   *scene.Animation
	timing scene.Timing
}

// Guard holds animation timings suspended by Freeze.
type Guard struct {
	once    sync.Once
	entries []frozenTiming
}

// Freeze moves every animation under root to its end state by zeroing its
// duration and delay. The original timings come back on Release.
func Freeze(root *scene.Node) *Guard {
	g := &Guard{}
	for _, anim := range scene.Animations(root) {
		g.entries = append(g.entries, frozenTiming{anim: anim, timing: anim.Timing()})
		anim.SetTiming(scene.Timing{})
	}
	return g
}

// Len returns the number of frozen animations.
func (g *Guard) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

// Release restores the original timings. Calls after the first do nothing.
func (g *Guard) Release() {
	if g == nil {
		return
	}
	g.once.Do(func() {
		for _, e := range g.entries {
			e.anim.SetTiming(e.timing)
		}
	})
}
