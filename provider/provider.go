// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package provider implements spec.md's C3: a lazy, memoized dependency
// graph with request- and application-scoped providers. Registration-
// time cycle detection is grounded in the teacher's general posture of
// failing fast at startup (router.MustNew, app.Option validation) rather
// than at request time; resolution-time memoization and the
// singleflight-coalesced first resolution are new, since the teacher
// has no DI container of its own to draw on.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Scope controls how long a provider's resolved value is cached.
type Scope int

const (
	// Request providers resolve once per incoming request.
	Request Scope = iota
	// Application providers resolve once for the process lifetime.
	Application
)

// Generator produces a provider's value. ctx is the context passed to
// the Resolve call that triggered generation; for an Application-scope
// provider that is the context of whichever call resolves it first.
type Generator func(ctx context.Context, get func(name string) (any, error)) (any, error)

// Teardown is invoked by Registry.Close when a request-scoped value is
// no longer needed (end of request). Teardown of application-scoped
// values is not run, neither by the Registry nor at Application
// shutdown. Optional.
type Teardown func(value any)

// Definition registers a single provider.
type Definition struct {
	Name     string
	Scope    Scope
	Generate Generator
	Teardown Teardown
}

var (
	// ErrUnknownProvider is returned when resolving a name with no
	// registered Definition.
	ErrUnknownProvider = errors.New("provider: unknown provider")
	// ErrCycle is returned by Freeze when the declared dependency graph
	// contains a cycle, and by Resolve when a request-scoped provider is
	// resolved re-entrantly.
	ErrCycle = errors.New("provider: dependency cycle detected")
)

// Registry holds provider definitions and per-scope resolution caches.
// A Registry is built once at startup (Register calls), then Freeze'd;
// after Freeze, Resolve is safe for concurrent use across requests.
type Registry struct {
	defs map[string]*Definition

	frozen bool
	order  []string // topological order, computed by Freeze

	appMu    sync.RWMutex // guards appCache
	appCache map[string]any
	appGroup singleflight.Group
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:     make(map[string]*Definition),
		appCache: make(map[string]any),
	}
}

// Register adds a provider definition. It panics if called after
// Freeze or if name is already registered, matching the teacher's
// fail-fast registration posture (router.MustNew).
func (r *Registry) Register(def Definition) {
	if r.frozen {
		panic("provider: Register called after Freeze")
	}
	if _, exists := r.defs[def.Name]; exists {
		panic("provider: duplicate registration for " + def.Name)
	}
	d := def
	r.defs[def.Name] = &d
}

// Freeze validates the registered graph for cycles and fixes it for
// concurrent resolution. declaredDeps maps a provider name to the
// names it depends on (collected at Register time by callers wrapping
// Generate, or supplied explicitly here); Freeze runs a recursive DFS
// with a visiting-set so a cycle is reported with the exact path
// rather than a generic error.
func (r *Registry) Freeze(declaredDeps map[string][]string) error {
	if r.frozen {
		return nil
	}

	visited := make(map[string]int) // 0=unvisited, 1=visiting, 2=done
	var order []string
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch visited[name] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("%w: %v -> %s", ErrCycle, path, name)
		}
		visited[name] = 1
		for _, dep := range declaredDeps[name] {
			if _, ok := r.defs[dep]; !ok {
				continue // dependency on a built-in/ambient value, not a registered provider
			}
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		visited[name] = 2
		order = append(order, name)
		return nil
	}

	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	for _, name := range names {
		if err := visit(name, nil); err != nil {
			return err
		}
	}

	r.order = order
	r.frozen = true
	return nil
}

// RequestCache holds request-scoped resolved values. One is created per
// incoming request and discarded (running Teardown hooks) when the
// request completes.
type RequestCache struct {
	values    map[string]any
	resolving map[string]bool
}

// NewRequestCache returns an empty per-request resolution cache.
func NewRequestCache() *RequestCache {
	return &RequestCache{values: make(map[string]any), resolving: make(map[string]bool)}
}

// Close runs Teardown for every resolved request-scoped value, in
// arbitrary order (request-scope teardowns are assumed independent).
func (r *Registry) Close(rc *RequestCache) {
	for name, v := range rc.values {
		if def, ok := r.defs[name]; ok && def.Teardown != nil {
			def.Teardown(v)
		}
	}
}

// Resolve returns the value for name, using rc for request-scope
// memoization and the Registry's own cache for application-scope
// memoization. It returns ErrUnknownProvider for an unregistered name
// and propagates the generator's own error otherwise.
func (r *Registry) Resolve(ctx context.Context, name string, rc *RequestCache) (any, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}

	switch def.Scope {
	case Application:
		return r.resolveApplication(ctx, def)
	default:
		return r.resolveRequest(ctx, def, rc)
	}
}

func (r *Registry) resolveApplication(ctx context.Context, def *Definition) (any, error) {
	r.appMu.RLock()
	v, ok := r.appCache[def.Name]
	r.appMu.RUnlock()
	if ok {
		return v, nil
	}
	// singleflight coalesces concurrent first-resolution across
	// goroutines handling different requests that both need this
	// provider before it has been cached, per spec.md §4.2.
	v, err, _ := r.appGroup.Do(def.Name, func() (any, error) {
		r.appMu.RLock()
		v, ok := r.appCache[def.Name]
		r.appMu.RUnlock()
		if ok {
			return v, nil
		}
		val, err := def.Generate(ctx, func(dep string) (any, error) {
			return r.Resolve(ctx, dep, nil)
		})
		if err != nil {
			return nil, err
		}
		r.appMu.Lock()
		r.appCache[def.Name] = val
		r.appMu.Unlock()
		return val, nil
	})
	return v, err
}

func (r *Registry) resolveRequest(ctx context.Context, def *Definition, rc *RequestCache) (any, error) {
	if rc == nil {
		return nil, fmt.Errorf("provider: request-scoped provider %q resolved with no request cache", def.Name)
	}
	if v, ok := rc.values[def.Name]; ok {
		return v, nil
	}
	if rc.resolving[def.Name] {
		return nil, fmt.Errorf("%w: %s resolved re-entrantly", ErrCycle, def.Name)
	}
	rc.resolving[def.Name] = true
	defer delete(rc.resolving, def.Name)

	val, err := def.Generate(ctx, func(dep string) (any, error) {
		return r.Resolve(ctx, dep, rc)
	})
	if err != nil {
		return nil, err
	}
	rc.values[def.Name] = val
	return val, nil
}

// ScopeOf returns the registered Scope for name, and whether name is
// registered at all. Useful for a caller labeling per-provider metrics
// by scope without needing to track it separately.
func (r *Registry) ScopeOf(name string) (Scope, bool) {
	def, ok := r.defs[name]
	if !ok {
		return 0, false
	}
	return def.Scope, true
}

// TopoOrder returns providers in dependency order (dependencies before
// dependents), for Application-scope eager resolution during lifecycle
// startup.
func (r *Registry) TopoOrder() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
