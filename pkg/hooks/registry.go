// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package hooks

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// LazyLoadFunc defers the cost of building a declaration until first dispatch.
type LazyLoadFunc func() (*Declaration, error)

// Registry maps hook names to declarations. One Registry is built per
// top-level run and threaded through the run's Context, never held as ambient
// global state, so concurrent runs in one process stay isolated. Entries may
// be lazy; a failed load is retried exactly once on the next lookup, and a
// second failure is permanent.
type Registry struct {
	id      string
	entries map[string]*registryEntry
}

type registryEntry struct {
	decl     *Declaration
	load     LazyLoadFunc
	failures int
	lastErr  error
}

func NewRegistry() *Registry {
	return &Registry{
		id:      uuid.NewString(),
		entries: map[string]*registryEntry{},
	}
}

// ID is the per-run random identifier, keeping registries of multiple runs in
// the same process distinguishable in diagnostics.
func (r *Registry) ID() string { return r.id }

func (r *Registry) Register(decl *Declaration) {
	r.entries[decl.Name] = &registryEntry{decl: decl}
}

func (r *Registry) RegisterLazy(name string, load LazyLoadFunc) {
	r.entries[name] = &registryEntry{load: load}
}

func (r *Registry) Has(name string) bool {
	_, found := r.entries[name]
	return found
}

// Lookup resolves a name to its declaration, loading lazy entries on first
// use.
func (r *Registry) Lookup(name string) (*Declaration, error) {
	entry, found := r.entries[name]
	if !found {
		return nil, UnknownHookError{Name: name}
	}

	if entry.decl == nil {
		if entry.failures >= 2 {
			return nil, fmt.Errorf("Loading hook '%s' failed twice, not retrying: %s", name, entry.lastErr)
		}
		decl, err := entry.load()
		if err != nil {
			entry.failures++
			entry.lastErr = err
			if entry.failures >= 2 {
				return nil, fmt.Errorf("Loading hook '%s' failed twice, not retrying: %s", name, err)
			}
			return nil, fmt.Errorf("Loading hook '%s' (will retry once): %s", name, err)
		}
		entry.decl = decl
	}

	return entry.decl, nil
}

func (r *Registry) Names() []string {
	var names []string
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
