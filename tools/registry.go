package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nucleus-go/assistant/permission"
)

// UnknownToolError is returned by Registry.Execute when name has no
// registered plugin.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// Registry is the capability-gated, name-keyed dispatch table described in
// SPEC_FULL.md §4.1. It is constructed once with a fixed granted
// permission; registration is the only place permission is checked.
type Registry struct {
	granted permission.Permission

	mu    sync.RWMutex
	items map[string]Plugin
}

// NewRegistry constructs an empty registry gated by granted.
func NewRegistry(granted permission.Permission) *Registry {
	return &Registry{
		granted: granted,
		items:   make(map[string]Plugin),
	}
}

// Granted returns the registry's configured permission set.
func (r *Registry) Granted() permission.Permission {
	return r.granted
}

// Register adds p iff the registry's granted permission dominates p's
// required permission. Rejected registrations are silently dropped; the
// caller learns the outcome from the returned bool. Duplicate names
// overwrite (last-writer-wins).
func (r *Registry) Register(p Plugin) bool {
	if !r.granted.Dominates(p.RequiredPermission()) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.Name()] = p
	return true
}

// Get returns the plugin registered under name, if any.
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[name]
	return p, ok
}

// All returns every registered plugin's spec. Iteration order is sorted by
// name for test determinism; the contract only requires stability between
// mutations, which a sorted snapshot also satisfies.
func (r *Registry) All() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]Spec, 0, len(names))
	for _, name := range names {
		specs = append(specs, specOf(r.items[name]))
	}
	return specs
}

// Execute looks up name and calls its Execute with args. The registry does
// not re-check permission at call time; registration is the gate.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) (Result, error) {
	r.mu.RLock()
	p, ok := r.items[name]
	r.mu.RUnlock()

	if !ok {
		return Result{}, &UnknownToolError{Name: name}
	}
	return p.Execute(ctx, args)
}
