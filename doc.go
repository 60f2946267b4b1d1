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

// Package wmcore is a library for building HTTP request-handling
// applications around a webmachine-style decision state machine.
//
// An Application registers routes, lifecycle hooks, providers (named
// computations resolved lazily per request or once per application
// lifetime), and per-status error handlers. Each incoming request is
// turned into a response by walking an ordered sequence of decision
// points (package machine), resolving provider dependencies through a
// request-scoped and application-scoped cache (package provider), and
// selecting a representation from the client's Accept header (package
// negotiate).
//
// Sub-packages:
//
//	route       - path-template compilation and matching
//	provider    - lazy, memoized dependency resolution
//	negotiate   - Accept-header content negotiation
//	conditional - ETag / Last-Modified precondition evaluation
//	machine     - the decision graph tying the above together
//	cors        - cross-origin resource sharing policy
//	csp         - Content-Security-Policy directive compilation
//	dispatch    - status/media-type keyed error rendering
//	lifecycle   - start-up/shutdown hook ordering
//
// wmcore itself only exposes and consumes contracts for transport
// adapters, template engines, and OpenAPI generation; it does not
// implement them.
//
// Application's shape — functional options, a Finalize step that
// freezes configuration before serving — is grounded in the teacher's
// app package (app/app.go, app/options.go): Application here plays the
// same structural role the teacher's App does, generalized from "HTTP
// router with middleware" to "webmachine decision machine with a
// provider graph."
package wmcore
