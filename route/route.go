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

package route

import (
	"github.com/rivaas-dev/wmcore/cors"
	"github.com/rivaas-dev/wmcore/csp"
)

// Route bundles a compiled template with the opaque handler reference
// and per-route policy overrides. Handler is declared as `any` to avoid
// an import cycle with the root package (which owns the concrete
// Handler type and type-asserts it back out).
type Route struct {
	Method   string
	Template *Template
	Handler  any
	Policy   Policy
	Name     string
}

// Policy carries per-route overrides. A nil field means "inherit from
// the enclosing router/app level"; route-scope values, when set, replace
// (never merge with) the inherited value, per spec.md §3.
type Policy struct {
	CORS              *cors.Policy
	CSP               *csp.Policy
	Renderers         []string          // media types for this route; not consulted by negotiation, which always uses the app-wide negotiator
	Providers         []string          // extra provider names to resolve and pass to the handler
	DecisionOverrides map[string]string // decision point name -> provider name
	Bypass            bool
}
