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

// Package dispatch implements spec.md's C9: a closed set of decision-
// machine error kinds and an RFC 7807 problem-details renderer, with a
// per-(status, media type) -> per-status -> default lookup cascade for
// custom error renderers. Grounded in the teacher's router/errors.go
// flat sentinel-error block (same closed-kind-set philosophy) and
// errors/ module's structured-error design.
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind is a closed enumeration of decision-machine failure modes.
type Kind int

const (
	RouteNotFound Kind = iota
	MethodNotAllowed
	Unauthorized
	Forbidden
	BadRequest
	NotAcceptable
	PreconditionFailed
	NotModified
	UnsupportedMediaType
	ServiceUnavailable
	UriTooLong
	InternalError
)

var kindStatus = map[Kind]int{
	RouteNotFound:        http.StatusNotFound,
	MethodNotAllowed:     http.StatusMethodNotAllowed,
	Unauthorized:         http.StatusUnauthorized,
	Forbidden:            http.StatusForbidden,
	BadRequest:           http.StatusBadRequest,
	NotAcceptable:        http.StatusNotAcceptable,
	PreconditionFailed:   http.StatusPreconditionFailed,
	NotModified:          http.StatusNotModified,
	UnsupportedMediaType: http.StatusUnsupportedMediaType,
	ServiceUnavailable:   http.StatusServiceUnavailable,
	UriTooLong:           http.StatusRequestURITooLong,
	InternalError:        http.StatusInternalServerError,
}

var kindTitle = map[Kind]string{
	RouteNotFound:        "Not Found",
	MethodNotAllowed:     "Method Not Allowed",
	Unauthorized:         "Unauthorized",
	Forbidden:            "Forbidden",
	BadRequest:           "Bad Request",
	NotAcceptable:        "Not Acceptable",
	PreconditionFailed:   "Precondition Failed",
	NotModified:          "Not Modified",
	UnsupportedMediaType: "Unsupported Media Type",
	ServiceUnavailable:   "Service Unavailable",
	UriTooLong:           "URI Too Long",
	InternalError:        "Internal Server Error",
}

// Status returns the default HTTP status code for a Kind.
func (k Kind) Status() int { return kindStatus[k] }

// Error wraps a decision-machine failure with its Kind and an optional
// underlying cause, supporting errors.Is/errors.As against both the
// Kind and the wrapped cause.
type Error struct {
	Kind    Kind
	Detail  string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", kindTitle[e.Kind], e.Cause)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", kindTitle[e.Kind], e.Detail)
	}
	return kindTitle[e.Kind]
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, dispatch.New(kind, "")) by comparing Kind
// alone, so callers can test "was this a NotAcceptable error" without
// constructing a matching Cause/Detail.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// New constructs an Error for kind with an optional human-readable detail.
func New(kind Kind, detail string) *Error { return &Error{Kind: kind, Detail: detail} }

// Wrap constructs an Error for kind, wrapping cause.
func Wrap(kind Kind, cause error) *Error { return &Error{Kind: kind, Cause: cause} }

// Problem is an RFC 7807 application/problem+json document.
type Problem struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Renderer produces a custom response body for an Error; registered per
// (Kind, media type) or per Kind. Returning ok=false falls through to
// the next entry in the lookup cascade.
type Renderer func(e *Error, instance string) (body []byte, contentType string, ok bool)

// Registry holds custom error renderers at up to three specificities:
// (kind, mediaType), (kind, ""), and a global default.
type Registry struct {
	byKindAndType map[Kind]map[string]Renderer
	byKind        map[Kind]Renderer
	fallback      Renderer
}

// NewRegistry returns a Registry with only the built-in RFC 7807
// fallback renderer.
func NewRegistry() *Registry {
	return &Registry{
		byKindAndType: make(map[Kind]map[string]Renderer),
		byKind:        make(map[Kind]Renderer),
	}
}

// RegisterForMediaType installs a renderer for a specific (kind, media type) pair.
func (r *Registry) RegisterForMediaType(kind Kind, mediaType string, render Renderer) {
	if r.byKindAndType[kind] == nil {
		r.byKindAndType[kind] = make(map[string]Renderer)
	}
	r.byKindAndType[kind][mediaType] = render
}

// RegisterForKind installs a renderer for any media type, for this kind.
func (r *Registry) RegisterForKind(kind Kind, render Renderer) {
	r.byKind[kind] = render
}

// SetFallback installs the global default renderer, used when no
// (kind, mediaType) or (kind, "") entry matches.
func (r *Registry) SetFallback(render Renderer) { r.fallback = render }

// Render runs the lookup cascade: (kind, mediaType) -> (kind, "") ->
// global default -> built-in RFC 7807 JSON.
func (r *Registry) Render(e *Error, mediaType, instance string) (body []byte, contentType string) {
	if byType, ok := r.byKindAndType[e.Kind]; ok {
		if render, ok := byType[mediaType]; ok {
			if b, ct, ok := render(e, instance); ok {
				return b, ct
			}
		}
	}
	if render, ok := r.byKind[e.Kind]; ok {
		if b, ct, ok := render(e, instance); ok {
			return b, ct
		}
	}
	if r.fallback != nil {
		if b, ct, ok := r.fallback(e, instance); ok {
			return b, ct
		}
	}
	return renderProblem(e, instance)
}

func renderProblem(e *Error, instance string) ([]byte, string) {
	p := Problem{
		Title:    kindTitle[e.Kind],
		Status:   e.Kind.Status(),
		Detail:   e.Detail,
		Instance: instance,
	}
	if p.Detail == "" && e.Cause != nil {
		p.Detail = e.Cause.Error()
	}
	b, err := json.Marshal(p)
	if err != nil {
		// Marshaling a Problem value can't fail (no cyclic or
		// unsupported field types); fall back to a minimal body rather
		// than panicking on a rendering path.
		b = []byte(`{"title":"Internal Server Error","status":500}`)
	}
	return b, "application/problem+json"
}
