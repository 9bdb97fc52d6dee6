package bastion

import (
	"fmt"
	"slices"
	"sync"
)

// Registry stores named pipeline configurations, typically loaded with
// [LoadConfig]. Typed policies are built on demand by [GetComposite].
type Registry struct {
	configs map[string]PolicyConfig
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{configs: make(map[string]PolicyConfig)}
}

// Set validates pc and stores it under name, replacing any previous entry.
func (r *Registry) Set(name string, pc PolicyConfig) error {
	if err := pc.Validate(); err != nil {
		return fmt.Errorf("bastion: policy %q: %w", name, err)
	}

	r.mu.Lock()
	r.configs[name] = pc
	r.mu.Unlock()

	return nil
}

// Config returns the configuration stored under name.
func (r *Registry) Config(name string) (PolicyConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pc, ok := r.configs[name]

	return pc, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// GetComposite builds the pipeline registered under name, wrapped by extra.
// An unknown name yields a composite of extra only.
func GetComposite[T any](reg *Registry, name string, extra ...Policy[T]) (*Composite[T], error) {
	pc, ok := reg.Config(name)
	if !ok {
		return Join(extra...).Named(name), nil
	}

	return BuildComposite(name, &pc, extra...)
}
