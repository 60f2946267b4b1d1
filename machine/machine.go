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

// Package machine implements spec.md's C6: the webmachine-style ordered
// decision state machine that drives every request from route_exists
// through execute_and_render. Each Step is CONTINUE or HALT(*Outcome);
// the default step order and halt semantics are new to this library (no
// teacher module plays this role), but the surrounding shape — a
// sequential pipeline of named functions, each wrapped in an OpenTelemetry
// span, instrumented with a Prometheus counter — is grounded in the
// teacher's router.ServeHTTP request lifecycle (observability hooks
// wrapping compiled-route lookup and dispatch) and app/lifecycle.go's
// hook-sequencing style.
package machine

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultStepOrder is spec.md §4.5's fixed sequence of decision point
// names. A bypass_state_machine route policy skips straight from
// "route_exists" to "execute_and_render".
var DefaultStepOrder = []string{
	"route_exists",
	"method_allowed",
	"cors_preflight",
	"service_available",
	"uri_too_long",
	"malformed_request",
	"authorized",
	"forbidden",
	"content_types_accepted",
	"accept_exists",
	"conditional_request",
	"cors_decorate",
	"execute_and_render",
}

// Outcome is what a Step decided.
type Outcome struct {
	Status      int
	Header      http.Header
	Body        []byte
	ContentType string
	halt        bool
}

// Continue signals normal progression to the next step.
func Continue() Outcome { return Outcome{} }

// Halt signals the machine should stop and render this outcome
// immediately, skipping all remaining steps.
func Halt(status int) Outcome { return Outcome{Status: status, halt: true} }

// HaltWithBody is Halt plus an explicit body and content type.
func HaltWithBody(status int, body []byte, contentType string) Outcome {
	return Outcome{Status: status, Body: body, ContentType: contentType, halt: true}
}

// HaltResponse builds a fully-specified halting Outcome, for callers
// (such as the wmcore root package) assembling a response across
// several concerns — CORS headers, a rendered body, an explicit status
// — that don't otherwise have access to Outcome's unexported halt flag.
func HaltResponse(status int, header http.Header, body []byte, contentType string) Outcome {
	return Outcome{Status: status, Header: header, Body: body, ContentType: contentType, halt: true}
}

// Halted reports whether this Outcome stops the machine.
func (o Outcome) Halted() bool { return o.halt }

// Step is one named decision point. The per-request state (route
// params, negotiated media type, etc.) is passed as st, the State type
// below; ctx carries request cancellation and tracing.
type Step func(ctx context.Context, st *State) Outcome

// State is the per-request scratch space threaded through every Step.
// Fields are populated incrementally as steps run: e.g.
// accept_exists sets MediaType, which execute_and_render later reads.
type State struct {
	Request  *http.Request
	Params   map[string]string
	MediaType string
	Extra     map[string]any // step-to-step handoff for fields not worth a named slot
}

// NewState returns a State for a fresh request.
func NewState(r *http.Request, params map[string]string) *State {
	return &State{Request: r, Params: params, Extra: make(map[string]any)}
}

var tracer = otel.Tracer("github.com/rivaas-dev/wmcore/machine")

// Machine is an ordered, named sequence of Steps.
type Machine struct {
	names []string
	steps map[string]Step
}

// New builds a Machine from the given name->Step map, running them in
// order order. A name present in order but absent from steps panics
// (programming error: every DefaultStepOrder entry must have a
// registered Step before Run is ever called).
func New(order []string, steps map[string]Step) *Machine {
	for _, name := range order {
		if _, ok := steps[name]; !ok {
			panic("machine: no Step registered for decision point " + name)
		}
	}
	return &Machine{names: order, steps: steps}
}

// Run executes steps in order until one halts or all complete. When
// bypass is true, only "route_exists" then "execute_and_render" run,
// skipping every decision point between them (spec.md's
// bypass_state_machine route policy). It returns the Outcome plus the
// name of the step that produced it, so a caller can label per-step
// metrics (e.g. a decision_halts_total counter keyed by step name).
func (m *Machine) Run(ctx context.Context, st *State, bypass bool) (Outcome, string) {
	order := m.names
	if bypass {
		order = []string{"route_exists", "execute_and_render"}
	}

	for _, name := range order {
		step := m.steps[name]
		ctx, span := tracer.Start(ctx, "machine.step."+name, trace.WithSpanKind(trace.SpanKindInternal))
		outcome := step(ctx, st)
		span.End()
		if outcome.Halted() {
			return outcome, name
		}
	}
	return Continue(), ""
}
