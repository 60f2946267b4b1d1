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

package provider

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterPanicsOnDuplicate(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(Definition{Name: "a", Generate: constGenerator("1")})
	assert.Panics(t, func() {
		r.Register(Definition{Name: "a", Generate: constGenerator("2")})
	})
}

func TestRegisterPanicsAfterFreeze(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.Freeze(nil))
	assert.Panics(t, func() {
		r.Register(Definition{Name: "a", Generate: constGenerator("1")})
	})
}

func constGenerator(v any) Generator {
	return func(ctx context.Context, get func(string) (any, error)) (any, error) {
		return v, nil
	}
}

func TestFreezeDetectsCycle(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(Definition{Name: "a", Generate: constGenerator("a")})
	r.Register(Definition{Name: "b", Generate: constGenerator("b")})

	err := r.Freeze(map[string][]string{
		"a": {"b"},
		"b": {"a"},
	})
	assert.ErrorIs(t, err, ErrCycle)
}

func TestFreezeProducesTopologicalOrder(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(Definition{Name: "a", Generate: constGenerator("a")})
	r.Register(Definition{Name: "b", Generate: constGenerator("b")})
	r.Register(Definition{Name: "c", Generate: constGenerator("c")})

	require.NoError(t, r.Freeze(map[string][]string{
		"c": {"b"},
		"b": {"a"},
	}))

	order := r.TopoOrder()
	pos := map[string]int{}
	for i, name := range order {
		pos[name] = i
	}
	assert.Less(t, pos["a"], pos["b"])
	assert.Less(t, pos["b"], pos["c"])
}

func TestResolveUnknownProvider(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.Freeze(nil))
	_, err := r.Resolve(context.Background(), "missing", NewRequestCache())
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestResolveApplicationScopeMemoizes(t *testing.T) {
	t.Parallel()

	var calls int32
	r := NewRegistry()
	r.Register(Definition{
		Name:  "counter",
		Scope: Application,
		Generate: func(ctx context.Context, get func(string) (any, error)) (any, error) {
			return int(atomic.AddInt32(&calls, 1)), nil
		},
	})
	require.NoError(t, r.Freeze(nil))

	ctx := context.Background()
	v1, err := r.Resolve(ctx, "counter", nil)
	require.NoError(t, err)
	v2, err := r.Resolve(ctx, "counter", nil)
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResolveRequestScopeMemoizesPerRequestCache(t *testing.T) {
	t.Parallel()

	var calls int32
	r := NewRegistry()
	r.Register(Definition{
		Name:  "req_counter",
		Scope: Request,
		Generate: func(ctx context.Context, get func(string) (any, error)) (any, error) {
			return int(atomic.AddInt32(&calls, 1)), nil
		},
	})
	require.NoError(t, r.Freeze(nil))

	ctx := context.Background()
	rc := NewRequestCache()
	v1, err := r.Resolve(ctx, "req_counter", rc)
	require.NoError(t, err)
	v2, err := r.Resolve(ctx, "req_counter", rc)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// A fresh request cache gets its own resolution.
	_, err = r.Resolve(ctx, "req_counter", NewRequestCache())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestResolveRequestScopeWithoutCacheErrors(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(Definition{Name: "a", Scope: Request, Generate: constGenerator("a")})
	require.NoError(t, r.Freeze(nil))

	_, err := r.Resolve(context.Background(), "a", nil)
	assert.Error(t, err)
}

func TestResolveRequestScopeReentrancyGuard(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(Definition{
		Name:  "self",
		Scope: Request,
		Generate: func(ctx context.Context, get func(string) (any, error)) (any, error) {
			return get("self")
		},
	})
	require.NoError(t, r.Freeze(nil))

	_, err := r.Resolve(context.Background(), "self", NewRequestCache())
	assert.ErrorIs(t, err, ErrCycle)
}

func TestResolveDependencyChain(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(Definition{Name: "base", Scope: Request, Generate: constGenerator(21)})
	r.Register(Definition{
		Name:  "doubled",
		Scope: Request,
		Generate: func(ctx context.Context, get func(string) (any, error)) (any, error) {
			v, err := get("base")
			if err != nil {
				return nil, err
			}
			return v.(int) * 2, nil
		},
	})
	require.NoError(t, r.Freeze(map[string][]string{"doubled": {"base"}}))

	v, err := r.Resolve(context.Background(), "doubled", NewRequestCache())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestScopeOf(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(Definition{Name: "req", Scope: Request, Generate: constGenerator("r")})
	r.Register(Definition{Name: "app", Scope: Application, Generate: constGenerator("a")})

	scope, ok := r.ScopeOf("req")
	require.True(t, ok)
	assert.Equal(t, Request, scope)

	scope, ok = r.ScopeOf("app")
	require.True(t, ok)
	assert.Equal(t, Application, scope)

	_, ok = r.ScopeOf("missing")
	assert.False(t, ok)
}

func TestCloseRunsTeardown(t *testing.T) {
	t.Parallel()

	var torndown bool
	r := NewRegistry()
	r.Register(Definition{
		Name:     "resource",
		Scope:    Request,
		Generate: constGenerator("handle"),
		Teardown: func(v any) { torndown = true },
	})
	require.NoError(t, r.Freeze(nil))

	rc := NewRequestCache()
	_, err := r.Resolve(context.Background(), "resource", rc)
	require.NoError(t, err)

	r.Close(rc)
	assert.True(t, torndown)
}
