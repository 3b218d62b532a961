package carousel

import (
	"errors"
	"sync"

	"wrapped/internal/services"
)

// ErrLeaseHeld is returned when another export already drives the carousel.
var ErrLeaseHeld = errors.New("carousel lease already held")

// State is a snapshot of the carousel position.
type State struct {
	Index  int
	Count  int
	Locked bool
}

// Listener receives panel-changed notifications.
type Listener func(State)

// Controller owns the visible panel index. It is the only mutator of which
// panel is shown; indices are clamped, never wrapped.
type Controller struct {
	mu        sync.Mutex
	index     int
	count     int
	lease     *Lease
	listeners map[int]Listener
	nextID    int
}

// New creates a controller over count panels starting at index 0.
func New(count int) (*Controller, error) {
	if count < 1 {
		return nil, services.Wrap(services.ErrValidation, "carousel", "new", "panel count must be >= 1", nil)
	}
	return &Controller{count: count, listeners: make(map[int]Listener)}, nil
}

// State returns the current position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Index returns the visible panel index.
func (c *Controller) Index() int { return c.State().Index }

// Count returns the number of panels.
func (c *Controller) Count() int { return c.State().Count }

// Locked reports whether an export currently holds the carousel; user
// navigation is ignored while true.
func (c *Controller) Locked() bool { return c.State().Locked }

// Next advances one panel unless at the last panel or locked.
func (c *Controller) Next() { c.userMove(func(i int) int { return i + 1 }) }

// Previous retreats one panel unless at the first panel or locked.
func (c *Controller) Previous() { c.userMove(func(i int) int { return i - 1 }) }

// GoTo jumps to clamp(i, 0, count-1) unless locked.
func (c *Controller) GoTo(i int) { c.userMove(func(int) int { return i }) }

// Subscribe registers fn for panel-changed notifications and returns a
// function that removes it.
func (c *Controller) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// AcquireLease hands exclusive control of the index to the caller. The index
// at acquisition is restored by Release.
func (c *Controller) AcquireLease() (*Lease, error) {
	c.mu.Lock()
	if c.lease != nil {
		c.mu.Unlock()
		return nil, ErrLeaseHeld
	}
	lease := &Lease{ctrl: c, saved: c.index}
	c.lease = lease
	state, listeners := c.stateLocked(), c.snapshotListeners()
	c.mu.Unlock()

	notify(listeners, state)
	return lease, nil
}

func (c *Controller) userMove(next func(int) int) {
	c.mu.Lock()
	if c.lease != nil {
		c.mu.Unlock()
		return
	}
	c.setLocked(next(c.index))
}

// setLocked must be called with c.mu held; it unlocks before notifying.
func (c *Controller) setLocked(target int) {
	target = clamp(target, 0, c.count-1)
	if target == c.index {
		c.mu.Unlock()
		return
	}
	c.index = target
	state, listeners := c.stateLocked(), c.snapshotListeners()
	c.mu.Unlock()
	notify(listeners, state)
}

func (c *Controller) stateLocked() State {
	return State{Index: c.index, Count: c.count, Locked: c.lease != nil}
}

func (c *Controller) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(c.listeners))
	for id := 0; id < c.nextID; id++ {
		if fn, ok := c.listeners[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func notify(listeners []Listener, state State) {
	for _, fn := range listeners {
		fn(state)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lease is the export job's exclusive handle on the carousel.
type Lease struct {
	ctrl     *Controller
	saved    int
	released bool
}

// Saved returns the index the user had when the lease was taken.
func (l *Lease) Saved() int { return l.saved }

// GoTo moves the carousel on behalf of the lease holder.
func (l *Lease) GoTo(i int) {
	c := l.ctrl
	c.mu.Lock()
	if c.lease != l {
		c.mu.Unlock()
		return
	}
	c.setLocked(i)
}

// Restore moves the carousel back to the saved index while keeping the lease,
// so the user sees their panel but cannot navigate yet.
func (l *Lease) Restore() { l.GoTo(l.saved) }

// Release restores the saved index and returns control to the user. It is
// safe to call more than once.
func (l *Lease) Release() {
	c := l.ctrl
	c.mu.Lock()
	if l.released || c.lease != l {
		c.mu.Unlock()
		return
	}
	l.released = true
	c.lease = nil
	c.index = clamp(l.saved, 0, c.count-1)
	state, listeners := c.stateLocked(), c.snapshotListeners()
	c.mu.Unlock()
	notify(listeners, state)
}
