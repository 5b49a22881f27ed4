// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package provider holds named backend factories.
//
// The blob and document stores each own a Registry. Backend packages
// register a factory from init, so a binary offers exactly the backends it
// blank-imports, in the manner of database/sql drivers.
package provider

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Factory builds a backend from string parameters taken from configuration.
// Unknown keys are ignored.
type Factory[T any] func(ctx context.Context, params map[string]string) (T, error)

// Registry maps backend names to factories. It is safe for concurrent use.
type Registry[T any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry creates an empty registry. kind names the backend family in
// error messages, e.g. "blob_store".
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{kind: kind, factories: make(map[string]Factory[T])}
}

// Register adds a factory. Registering the same name twice panics, which
// surfaces conflicting blank imports at startup.
func (r *Registry[T]) Register(name string, f Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		panic(fmt.Sprintf("provider: %s backend %q registered twice", r.kind, name))
	}
	r.factories[name] = f
}

// Has reports whether name is registered.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// New builds the backend registered as name.
func (r *Registry[T]) New(ctx context.Context, name string, params map[string]string) (T, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("unknown %s backend %q (available: %v)", r.kind, name, r.Available())
	}
	if params == nil {
		params = map[string]string{}
	}
	backend, err := f(ctx, params)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("create %s backend %q: %w", r.kind, name, err)
	}
	return backend, nil
}

// Available returns the registered names in sorted order.
func (r *Registry[T]) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}
