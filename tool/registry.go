package tool

import (
	"context"
	"fmt"
)

// Registry is an immutable, ordered set of tools built once at startup.
// Registration order is the order descriptors are presented to providers.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry validates the tools and builds a registry. Tool names must be unique.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		order: make([]string, 0, len(tools)),
		tools: make(map[string]Tool, len(tools)),
	}

	for _, t := range tools {
		if t == nil {
			continue
		}

		if err := DescriptorOf(t).Validate(); err != nil {
			return nil, err
		}

		if _, dup := r.tools[t.Name()]; dup {
			return nil, fmt.Errorf("tool %q already registered", t.Name())
		}

		r.order = append(r.order, t.Name())
		r.tools[t.Name()] = t
	}

	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error.
// Use only with statically known tool sets (e.g., in tests).
func MustNewRegistry(tools ...Tool) *Registry {
	r, err := NewRegistry(tools...)
	if err != nil {
		panic(fmt.Sprintf("tool.MustNewRegistry: %v", err))
	}

	return r
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)

	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.order) }

// Descriptors returns the descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	descs := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		descs = append(descs, DescriptorOf(r.tools[name]))
	}

	return descs
}

// Execute implements Executor by dispatching to the named tool.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, NewToolError(name, fmt.Sprintf("tool %s not found", name), CodeNotFound)
	}

	return t.Call(ctx, args)
}
