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

package wmcore

import "net/http"

// Handler is a route's business logic. It receives path parameters
// plus the named providers the route declared via route.Policy.Providers
// (resolveHandlerParams in steps.go resolves each name through the
// provider registry before calling the handler) and returns a
// HandlerResult describing what to render.
type Handler func(params map[string]any) HandlerResult

// HandlerResult is a closed, tagged-variant union over the shapes a
// handler's return value can take. Using a sealed interface instead of
// runtime type-switches over `any` keeps the handling in machine.Run
// exhaustive and avoids ad-hoc reflection-based shape sniffing (see
// SPEC_FULL.md's Design Notes on dynamic dispatch).
type HandlerResult interface {
	isHandlerResult()
}

// NoContent signals the handler produced no body; the machine renders a
// 204 with no Content-Type.
type NoContent struct{}

func (NoContent) isHandlerResult() {}

// Value wraps a plain return value to be rendered by the negotiated
// renderer at the default 200 status.
type Value struct {
	V any
}

func (Value) isHandlerResult() {}

// ValueStatus is Value plus an explicit status code.
type ValueStatus struct {
	V      any
	Status int
}

func (ValueStatus) isHandlerResult() {}

// ValueStatusHeaders is ValueStatus plus additional response headers to
// merge in (without clobbering ones the machine already set, such as
// the CORS and CSP headers).
type ValueStatusHeaders struct {
	V      any
	Status int
	Header http.Header
}

func (ValueStatusHeaders) isHandlerResult() {}

// RawResponse lets a handler bypass rendering entirely and hand back an
// already-built Response. The machine still merges in any CORS/CSP
// headers the earlier decision steps computed, without clobbering
// headers the Response already set.
type RawResponse struct {
	Response *Response
}

func (RawResponse) isHandlerResult() {}
