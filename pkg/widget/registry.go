package widget

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Instance is one live widget: a terminal viewer, a file read by a status
// bar, ...
type Instance interface {
	ID() string
	Kind() string
	Draw(Frame) error
}

// InstanceInfo describes a registered instance.
type InstanceInfo struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// Registry tracks live instances. The refresh path enumerates it on every
// redraw; instances are never cached elsewhere.
type Registry struct {
	mu        sync.RWMutex
	instances map[string]Instance
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{instances: make(map[string]Instance)}
}

// Register adds inst. Ids must be unique.
func (r *Registry) Register(inst Instance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[inst.ID()]; ok {
		return fmt.Errorf("widget: instance %q already registered", inst.ID())
	}
	r.instances[inst.ID()] = inst
	return nil
}

// Unregister removes id, closing it when it is an io.Closer.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	inst, ok := r.instances[id]
	delete(r.instances, id)
	r.mu.Unlock()
	if ok {
		if c, isCloser := inst.(io.Closer); isCloser {
			_ = c.Close()
		}
	}
	return ok
}

// IDs lists registered instances in a stable order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.instances))
	for id := range r.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List describes every registered instance.
func (r *Registry) List() []InstanceInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]InstanceInfo, 0, len(r.instances))
	for id, inst := range r.instances {
		out = append(out, InstanceInfo{ID: id, Kind: inst.Kind()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len is the number of registered instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

// Redraw draws f on instance id.
func (r *Registry) Redraw(id string, f Frame) error {
	r.mu.RLock()
	inst, ok := r.instances[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("widget: no instance %q", id)
	}
	return inst.Draw(f)
}
