package surface

import (
	"log/slog"
	"sync"
	"time"

	"wrapped/internal/carousel"
	"wrapped/internal/logging"
	"wrapped/internal/panels"
	"wrapped/internal/scene"
)

// Mounted is the panel currently shown by the surface.
type Mounted struct {
	Index int
	Panel panels.Descriptor
	Root  *scene.Node
	At    time.Time
}

// Surface renders the active carousel panel. Every panel change mounts a
// fresh scene tree and starts its entry animations, the way a page mounts
// its active card.
type Surface struct {
	registry *panels.Registry
	env      panels.Env
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.RWMutex
	mounted Mounted

	unsubscribe func()
	onMount     []func(Mounted)
}

// Option configures a Surface.
type Option func(*Surface)

// WithClock overrides the mount clock.
func WithClock(now func() time.Time) Option {
	return func(s *Surface) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMountHook registers fn to run after each mount.
func WithMountHook(fn func(Mounted)) Option {
	return func(s *Surface) {
		if fn != nil {
			s.onMount = append(s.onMount, fn)
		}
	}
}

// New mounts the controller's current panel and follows subsequent changes.
func New(registry *panels.Registry, ctrl *carousel.Controller, env panels.Env, logger *slog.Logger, opts ...Option) *Surface {
	s := &Surface{
		registry: registry,
		env:      env,
		logger:   logging.NewComponentLogger(logger, "surface"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mount(ctrl.Index())
	s.unsubscribe = ctrl.Subscribe(func(state carousel.State) {
		s.mount(state.Index)
	})
	return s
}

// Close stops following the carousel.
func (s *Surface) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Current returns the mounted panel.
func (s *Surface) Current() Mounted {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mounted
}

// Root returns the mounted tree for panelID. A panel that is not the visible
// one has no root.
func (s *Surface) Root(panelID string) (*scene.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mounted.Root == nil || s.mounted.Panel.ID != panelID {
		return nil, false
	}
	return s.mounted.Root, true
}

func (s *Surface) mount(index int) {
	desc, ok := s.registry.At(index)
	if !ok {
		s.logger.Warn("panel index out of range", logging.Int("index", index))
		return
	}
	s.mu.RLock()
	same := s.mounted.Root != nil && s.mounted.Index == index
	s.mu.RUnlock()
	if same {
		return
	}

	root := desc.Render(s.env)
	at := s.now()
	scene.StartAnimations(root, at)

	m := Mounted{Index: index, Panel: desc, Root: root, At: at}
	s.mu.Lock()
	s.mounted = m
	s.mu.Unlock()

	s.logger.Debug("panel mounted",
		logging.String(logging.FieldPanelID, desc.ID),
		logging.Int("index", index),
	)
	for _, fn := range s.onMount {
		fn(m)
	}
}
