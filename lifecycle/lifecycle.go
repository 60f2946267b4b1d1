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

// Package lifecycle implements spec.md's C10: ordered start/ready/
// shutdown/stop hook queues plus a route-registration hook. Ported
// directly from the teacher's app/lifecycle.go Hooks struct and
// execute* methods; generalized to fire a route hook for every
// registered route.Route value instead of the teacher's router.Route.
// The package does not resolve providers itself; wmcore's
// Application.Start resolves application-scope providers before it runs
// the start hooks.
package lifecycle

import (
	"context"
	"sync"
)

// Hooks holds the four lifecycle queues plus the route-registration
// hook, exactly mirroring app/lifecycle.go's structure and ordering
// guarantees: start hooks run sequentially and abort on first error;
// ready hooks run asynchronously after start succeeds; shutdown hooks
// run in LIFO order; stop hooks run best-effort with panic recovery.
type Hooks struct {
	mu         sync.Mutex
	frozen     bool
	onStart    []func(context.Context) error
	onReady    []func()
	onShutdown []func(context.Context)
	onStop     []func()
	onRoute    []func(name, method, path string)
}

// New returns an empty Hooks set.
func New() *Hooks { return &Hooks{} }

// Freeze prevents further hook registration, matching the teacher's
// Frozen()-gated OnStart/OnReady/etc. (there, gated on router.Frozen();
// here, gated on an explicit Freeze call made at Application.Finalize).
func (h *Hooks) Freeze() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frozen = true
}

func (h *Hooks) checkMutable() {
	if h.frozen {
		panic("lifecycle: hook registered after Freeze")
	}
}

// OnStart registers a startup hook. Hooks run in registration order;
// the first error returned aborts the remaining hooks and startup.
func (h *Hooks) OnStart(fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkMutable()
	h.onStart = append(h.onStart, fn)
}

// OnReady registers a hook fired asynchronously once start hooks
// complete successfully.
func (h *Hooks) OnReady(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkMutable()
	h.onReady = append(h.onReady, fn)
}

// OnShutdown registers a graceful-shutdown hook, run in LIFO order.
func (h *Hooks) OnShutdown(fn func(context.Context)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkMutable()
	h.onShutdown = append(h.onShutdown, fn)
}

// OnStop registers a best-effort final-stop hook.
func (h *Hooks) OnStop(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkMutable()
	h.onStop = append(h.onStop, fn)
}

// OnRoute registers a hook fired once per route as routes are
// registered (before Freeze).
func (h *Hooks) OnRoute(fn func(name, method, path string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkMutable()
	h.onRoute = append(h.onRoute, fn)
}

// FireRoute notifies onRoute hooks of a newly registered route.
func (h *Hooks) FireRoute(name, method, path string) {
	h.mu.Lock()
	hooks := append([]func(name, method, path string){}, h.onRoute...)
	h.mu.Unlock()
	for _, fn := range hooks {
		fn(name, method, path)
	}
}

// ExecuteStart runs onStart hooks sequentially, returning the first
// error encountered and skipping the rest.
func (h *Hooks) ExecuteStart(ctx context.Context) error {
	for _, fn := range h.onStart {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteReady runs onReady hooks asynchronously in their own
// goroutines, recovering from panics so one bad hook doesn't crash the
// process.
func (h *Hooks) ExecuteReady() {
	for _, fn := range h.onReady {
		go func(fn func()) {
			defer func() { _ = recover() }()
			fn()
		}(fn)
	}
}

// ExecuteShutdown runs onShutdown hooks in reverse registration
// (LIFO) order.
func (h *Hooks) ExecuteShutdown(ctx context.Context) {
	for i := len(h.onShutdown) - 1; i >= 0; i-- {
		h.onShutdown[i](ctx)
	}
}

// ExecuteStop runs onStop hooks best-effort, recovering from panics so
// every hook gets a chance to run.
func (h *Hooks) ExecuteStop() {
	for _, fn := range h.onStop {
		func(fn func()) {
			defer func() { _ = recover() }()
			fn()
		}(fn)
	}
}
