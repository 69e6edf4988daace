// Package tools provides the capability layer agents can invoke mid-turn:
// internal evidence retrieval and external validity search.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Spec declares a capability to the model backend: its name, description,
// and a JSON-schema parameter shape. Every capability must declare one.
type Spec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ExecutorFunc runs a capability with raw JSON arguments.
type ExecutorFunc func(ctx context.Context, args json.RawMessage) (json.RawMessage, error)

// Registry stores capability specs and executors keyed by name.
type Registry struct {
	mu        sync.RWMutex
	specs     map[string]Spec
	executors map[string]ExecutorFunc
}

// NewRegistry creates an empty capability registry.
func NewRegistry() *Registry {
	return &Registry{
		specs:     make(map[string]Spec),
		executors: make(map[string]ExecutorFunc),
	}
}

// Register adds a capability with its spec and executor.
func (r *Registry) Register(spec Spec, exec ExecutorFunc) error {
	if spec.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if exec == nil {
		return fmt.Errorf("executor is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.executors[spec.Name]; exists {
		return fmt.Errorf("executor already registered for %s", spec.Name)
	}
	r.specs[spec.Name] = spec
	r.executors[spec.Name] = exec
	return nil
}

// MustRegister adds a capability or panics.
func (r *Registry) MustRegister(spec Spec, exec ExecutorFunc) {
	if err := r.Register(spec, exec); err != nil {
		panic(err)
	}
}

// Execute runs the executor for the capability name.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	if name == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	r.mu.RLock()
	exec := r.executors[name]
	r.mu.RUnlock()
	if exec == nil {
		return nil, fmt.Errorf("no executor registered for %s", name)
	}
	return exec(ctx, args)
}

// Specs returns the specs for the named capabilities, skipping unknown names.
func (r *Registry) Specs(names ...string) []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Spec, 0, len(names))
	for _, name := range names {
		if spec, ok := r.specs[name]; ok {
			out = append(out, spec)
		}
	}
	return out
}
