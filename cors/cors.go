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

// Package cors implements spec.md's C7: preflight synthesis and
// actual-request decoration. It generalizes the teacher's
// router/middleware/cors middleware (a single closure built from
// functional options) into an immutable Policy value the decision
// machine consults at two distinct points instead of a single
// middleware invocation, so it can compose with the app->router->route
// policy-inheritance rule in spec.md §3.
package cors

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// ErrWildcardWithCredentials is returned by Validate when origins="*" is
// combined with credentials=true without explicitly opting into
// ReflectAnyOrigin (a development-only escape hatch).
var ErrWildcardWithCredentials = errors.New("cors: origins=\"*\" with credentials=true requires ReflectAnyOrigin")

// Option configures a Policy via New.
type Option func(*Policy)

// Policy is an immutable CORS configuration. Build one with New and
// Option values; a zero Policy allows nothing (matching the teacher's
// "restrictive by default" posture in router/middleware/cors).
type Policy struct {
	AllowedOrigins   []string
	AllowAllOrigins  bool
	AllowOriginFunc  func(origin string) bool
	ReflectAnyOrigin bool
	AllowedMethods   []string // empty = auto-detect from the route table per path
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int // seconds
}

// New builds a Policy from functional options, matching the teacher's
// cors.New(...Option) signature and option names.
func New(opts ...Option) *Policy {
	p := &Policy{
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:         3600,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithAllowedOrigins sets the exact-match allowed origin list.
func WithAllowedOrigins(origins ...string) Option {
	return func(p *Policy) { p.AllowedOrigins = origins }
}

// WithAllowAllOrigins sets Access-Control-Allow-Origin: * for every
// request with an Origin header.
func WithAllowAllOrigins(enable bool) Option {
	return func(p *Policy) { p.AllowAllOrigins = enable }
}

// WithAllowOriginFunc installs a dynamic origin predicate.
func WithAllowOriginFunc(fn func(origin string) bool) Option {
	return func(p *Policy) { p.AllowOriginFunc = fn }
}

// WithReflectAnyOrigin allows origins="*" combined with credentials=true
// by reflecting the request's Origin back verbatim instead of emitting a
// literal "*". Development-only; see spec.md §4.6.
func WithReflectAnyOrigin(enable bool) Option {
	return func(p *Policy) { p.ReflectAnyOrigin = enable }
}

// WithAllowedMethods overrides auto-detection of the method set.
func WithAllowedMethods(methods ...string) Option {
	return func(p *Policy) { p.AllowedMethods = methods }
}

// WithAllowedHeaders sets the request headers a preflight may ask for.
func WithAllowedHeaders(headers ...string) Option {
	return func(p *Policy) { p.AllowedHeaders = headers }
}

// WithExposedHeaders sets headers exposed to the client on actual responses.
func WithExposedHeaders(headers ...string) Option {
	return func(p *Policy) { p.ExposedHeaders = headers }
}

// WithAllowCredentials enables Access-Control-Allow-Credentials: true.
func WithAllowCredentials(enable bool) Option {
	return func(p *Policy) { p.AllowCredentials = enable }
}

// WithMaxAge sets the preflight cache duration, in seconds.
func WithMaxAge(seconds int) Option {
	return func(p *Policy) { p.MaxAge = seconds }
}

// Validate rejects origins="*" combined with credentials=true unless
// ReflectAnyOrigin is set, per spec.md §4.6. Called from
// Application.Finalize, mirroring the teacher's registration-time
// validation philosophy (router.MustNew panics on bad config; this
// library returns an error instead since callers assemble Policy values
// programmatically and a panic is an unfriendly way to report that).
func (p *Policy) Validate() error {
	if p.AllowAllOrigins && p.AllowCredentials && !p.ReflectAnyOrigin {
		return ErrWildcardWithCredentials
	}
	return nil
}

func (p *Policy) matchOrigin(origin string) (allowed string, ok bool) {
	switch {
	case p.AllowAllOrigins:
		if p.AllowCredentials {
			// Cannot emit a literal "*" with credentials; reflect the
			// concrete origin instead (still gated by Validate unless
			// ReflectAnyOrigin was set).
			return origin, true
		}
		return "*", true
	case p.AllowOriginFunc != nil:
		if p.AllowOriginFunc(origin) {
			return origin, true
		}
	case slices.Contains(p.AllowedOrigins, origin):
		return origin, true
	}
	return "", false
}

// Preflight synthesizes the response to an OPTIONS request carrying
// Access-Control-Request-Method, per spec.md §4.6. autoMethods is the
// route table's auto-detected allowed-method set for this path, used
// when AllowedMethods wasn't explicitly configured. ok is false when the
// origin doesn't match, in which case the caller should proceed as if no
// CORS policy applied (the browser enforces the block client-side).
func (p *Policy) Preflight(origin string, autoMethods []string) (header http.Header, ok bool) {
	allowedOrigin, matched := p.matchOrigin(origin)
	if !matched {
		return nil, false
	}

	methods := p.AllowedMethods
	if len(methods) == 0 {
		methods = append(append([]string{}, autoMethods...), http.MethodOptions)
	}

	h := http.Header{}
	h.Set("Access-Control-Allow-Origin", allowedOrigin)
	h.Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))
	if len(p.AllowedHeaders) > 0 {
		h.Set("Access-Control-Allow-Headers", strings.Join(p.AllowedHeaders, ", "))
	}
	if p.MaxAge > 0 {
		h.Set("Access-Control-Max-Age", strconv.Itoa(p.MaxAge))
	}
	if p.AllowCredentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	h.Add("Vary", "Origin")
	return h, true
}

// Decorate adds CORS headers to an actual (non-preflight) response, per
// spec.md §4.6. ok is false when the origin doesn't match and no header
// should be attached at all.
func (p *Policy) Decorate(origin string) (header http.Header, ok bool) {
	allowedOrigin, matched := p.matchOrigin(origin)
	if !matched {
		return nil, false
	}

	h := http.Header{}
	h.Set("Access-Control-Allow-Origin", allowedOrigin)
	if p.AllowCredentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if len(p.ExposedHeaders) > 0 {
		h.Set("Access-Control-Expose-Headers", strings.Join(p.ExposedHeaders, ", "))
	}
	h.Add("Vary", "Origin")
	return h, true
}
