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
	"errors"
)

// RequestContext is the minimal view of an in-flight request the
// built-in request-scope providers read from. Application sets one
// value of this shape into the per-request Generator context via
// context.WithValue under requestContextKey before resolving any
// request-scope provider, so these providers stay decoupled from
// net/http (and from the root wmcore package, avoiding an import
// cycle).
type RequestContext struct {
	PathParams  map[string]string
	QueryParams map[string][]string
	Header      map[string][]string
	RawBody     func() ([]byte, error)
	JSONBody    func() (any, error)
}

type requestContextKeyType struct{}

var requestContextKey requestContextKeyType

// WithRequestContext returns a context carrying rc for the built-in
// providers to read during Resolve.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, rc)
}

func requestContextFrom(ctx context.Context) (*RequestContext, error) {
	rc, ok := ctx.Value(requestContextKey).(*RequestContext)
	if !ok || rc == nil {
		return nil, errors.New("provider: no RequestContext in context for a request-scoped built-in provider")
	}
	return rc, nil
}

// RegisterRequestBuiltins adds the "path_params", "query_params",
// "headers", "json_body", and "body" request-scope providers described
// in SPEC_FULL.md §4.2's built-in provider list.
func (r *Registry) RegisterRequestBuiltins() {
	r.Register(Definition{
		Name: "path_params", Scope: Request,
		Generate: func(ctx context.Context, get func(string) (any, error)) (any, error) {
			rc, err := requestContextFrom(ctx)
			if err != nil {
				return nil, err
			}
			return rc.PathParams, nil
		},
	})
	r.Register(Definition{
		Name: "query_params", Scope: Request,
		Generate: func(ctx context.Context, get func(string) (any, error)) (any, error) {
			rc, err := requestContextFrom(ctx)
			if err != nil {
				return nil, err
			}
			return rc.QueryParams, nil
		},
	})
	r.Register(Definition{
		Name: "headers", Scope: Request,
		Generate: func(ctx context.Context, get func(string) (any, error)) (any, error) {
			rc, err := requestContextFrom(ctx)
			if err != nil {
				return nil, err
			}
			return rc.Header, nil
		},
	})
	r.Register(Definition{
		Name: "body", Scope: Request,
		Generate: func(ctx context.Context, get func(string) (any, error)) (any, error) {
			rc, err := requestContextFrom(ctx)
			if err != nil {
				return nil, err
			}
			return rc.RawBody()
		},
	})
	r.Register(Definition{
		Name: "json_body", Scope: Request,
		Generate: func(ctx context.Context, get func(string) (any, error)) (any, error) {
			rc, err := requestContextFrom(ctx)
			if err != nil {
				return nil, err
			}
			return rc.JSONBody()
		},
	})
}
