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

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// builtinRenderers maps renderer-provider names — the names
// negotiate.Negotiator.Negotiate returns alongside a media type — to a
// marshal function and the content type it produces. The content
// negotiator (C4) picks the provider name; this map is what backs the
// two renderer-providers WithDefaultRenderers registers.
var builtinRenderers = map[string]struct {
	marshal     func(v any) ([]byte, error)
	contentType string
}{
	"render.json": {json.Marshal, "application/json"},
	"render.yaml": {yaml.Marshal, "application/yaml"},
}

// marshalWithRenderer renders v using the renderer-provider named by
// providerName, falling back to the JSON renderer if providerName isn't
// one of the built-ins. Renderer-provider names are looked up in this
// map only, never through Application.Providers(), so a media type
// registered with the negotiator under any other provider name is
// rendered as JSON.
func marshalWithRenderer(v any, providerName string) (body []byte, contentType string) {
	renderer, ok := builtinRenderers[providerName]
	if !ok {
		renderer = builtinRenderers["render.json"]
	}
	b, err := renderer.marshal(v)
	if err != nil {
		return []byte(`{"title":"Internal Server Error","status":500}`), "application/problem+json"
	}
	return b, renderer.contentType
}

// WithDefaultRenderers registers the built-in JSON and YAML renderers
// under their media types against the Application's negotiator, plus
// "*/*" defaulting to JSON. Call before Finalize.
func WithDefaultRenderers() Option {
	return func(a *Application) {
		_ = a.negotiator.Register("application/json", "render.json")
		_ = a.negotiator.Register("application/yaml", "render.yaml")
		_ = a.negotiator.Register("*/*", "render.json")
	}
}
