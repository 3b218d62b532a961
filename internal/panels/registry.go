package panels

import (
	"fmt"
	"strings"

	"wrapped/internal/scene"
	"wrapped/internal/services"
)

// Measurer sizes text for layout. fonts.Book satisfies it.
type Measurer interface {
	Measure(ref scene.FontRef, s string) (float64, float64)
}

// Env carries the session facts every card shows.
type Env struct {
	Subject string
	Period  string
	Text    Measurer
}

// Renderer builds a fresh scene tree for a panel's data.
type Renderer interface {
	Render(env Env, data any) *scene.Node
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(env Env, data any) *scene.Node

// Render implements Renderer.
func (f RenderFunc) Render(env Env, data any) *scene.Node { return f(env, data) }

// Descriptor is one immutable entry of the registry.
type Descriptor struct {
	ID       string
	Title    string
	Data     any
	Renderer Renderer
}

// Render builds the descriptor's scene.
func (d Descriptor) Render(env Env) *scene.Node {
	if d.Renderer == nil {
		return nil
	}
	return d.Renderer.Render(env, d.Data)
}

// Registry is the ordered, immutable panel sequence of a session.
type Registry struct {
	panels []Descriptor
	index  map[string]int
}

// NewRegistry validates ids and freezes the order.
func NewRegistry(panels ...Descriptor) (*Registry, error) {
	if len(panels) == 0 {
		return nil, services.Wrap(services.ErrValidation, "panels", "build", "at least one panel is required", nil)
	}
	reg := &Registry{
		panels: make([]Descriptor, len(panels)),
		index:  make(map[string]int, len(panels)),
	}
	for i, p := range panels {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, services.Wrap(services.ErrValidation, "panels", "build", fmt.Sprintf("panel %d has no id", i), nil)
		}
		if p.Renderer == nil {
			return nil, services.Wrap(services.ErrValidation, "panels", "build", fmt.Sprintf("panel %q has no renderer", id), nil)
		}
		if _, dup := reg.index[id]; dup {
			return nil, services.Wrap(services.ErrValidation, "panels", "build", fmt.Sprintf("duplicate panel id %q", id), nil)
		}
		p.ID = id
		reg.panels[i] = p
		reg.index[id] = i
	}
	return reg, nil
}

// Len returns the number of panels.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.panels)
}

// At returns the panel at index i.
func (r *Registry) At(i int) (Descriptor, bool) {
	if r == nil || i < 0 || i >= len(r.panels) {
		return Descriptor{}, false
	}
	return r.panels[i], true
}

// Lookup finds a panel by id.
func (r *Registry) Lookup(id string) (Descriptor, int, bool) {
	if r == nil {
		return Descriptor{}, -1, false
	}
	i, ok := r.index[id]
	if !ok {
		return Descriptor{}, -1, false
	}
	return r.panels[i], i, true
}

// IDs returns panel ids in order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.panels))
	for i, p := range r.panels {
		out[i] = p.ID
	}
	return out
}

// All returns a copy of the descriptors.
func (r *Registry) All() []Descriptor {
	if r == nil {
		return nil
	}
	return append([]Descriptor(nil), r.panels...)
}
