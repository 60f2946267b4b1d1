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
	"context"
	"net/http"
	"time"

	"github.com/rivaas-dev/wmcore/conditional"
	"github.com/rivaas-dev/wmcore/csp"
	"github.com/rivaas-dev/wmcore/dispatch"
	"github.com/rivaas-dev/wmcore/machine"
	"github.com/rivaas-dev/wmcore/provider"
	"github.com/rivaas-dev/wmcore/route"
)

// buildSteps wires the concrete Step implementations for
// machine.DefaultStepOrder against this Application's route table,
// provider registry, negotiator, and policies. Each step's error
// rendering goes through a.errors (the dispatch.Registry lookup
// cascade), per spec.md §4.9's "one error-rendering path" requirement.
func (a *Application) buildSteps() map[string]machine.Step {
	return map[string]machine.Step{
		"route_exists":           a.stepRouteExists,
		"method_allowed":         a.stepMethodAllowed,
		"cors_preflight":         a.stepCORSPreflight,
		"service_available":      a.stepServiceAvailable,
		"uri_too_long":           a.stepURITooLong,
		"malformed_request":      a.stepMalformedRequest,
		"authorized":             a.stepAuthorized,
		"forbidden":              a.stepForbidden,
		"content_types_accepted": a.stepContentTypesAccepted,
		"accept_exists":          a.stepAcceptExists,
		"conditional_request":    a.stepConditionalRequest,
		"cors_decorate":          a.stepCORSDecorate,
		"execute_and_render":     a.stepExecuteAndRender,
	}
}

func (a *Application) matchOf(st *machine.State) route.MatchResult {
	return st.Extra["match"].(route.MatchResult)
}

func (a *Application) renderError(e *dispatch.Error, mediaType, instance string) machine.Outcome {
	body, contentType := a.errors.Render(e, mediaType, instance)
	return machine.HaltWithBody(e.Kind.Status(), body, contentType)
}

func (a *Application) stepRouteExists(ctx context.Context, st *machine.State) machine.Outcome {
	m := a.matchOf(st)
	if m.Outcome == route.NotFound {
		return a.renderError(dispatch.New(dispatch.RouteNotFound, ""), "", st.Request.URL.Path)
	}
	return machine.Continue()
}

func (a *Application) stepMethodAllowed(ctx context.Context, st *machine.State) machine.Outcome {
	m := a.matchOf(st)
	if m.Outcome == route.MethodNotAllowed {
		// A CORS preflight to a path with no OPTIONS route is answered
		// by the preflight logic rather than with a 405.
		if pre := a.stepCORSPreflight(ctx, st); pre.Halted() {
			return pre
		}
		o := a.renderError(dispatch.New(dispatch.MethodNotAllowed, ""), "", st.Request.URL.Path)
		if o.Header == nil {
			o.Header = http.Header{}
		}
		o.Header.Set("Allow", joinComma(m.AllowedMethods()))
		return o
	}
	return machine.Continue()
}

func (a *Application) stepCORSPreflight(ctx context.Context, st *machine.State) machine.Outcome {
	m := a.matchOf(st)
	origin := st.Request.Header.Get("Origin")
	if st.Request.Method != http.MethodOptions || origin == "" ||
		st.Request.Header.Get("Access-Control-Request-Method") == "" {
		return machine.Continue()
	}
	policy := effectiveCORS(a, routeOf(m))
	if policy == nil {
		return machine.Continue()
	}
	header, ok := policy.Preflight(origin, m.AllowedMethods())
	if !ok {
		return machine.Continue()
	}
	return machine.HaltResponse(http.StatusNoContent, header, nil, "")
}

func (a *Application) stepServiceAvailable(ctx context.Context, st *machine.State) machine.Outcome {
	return machine.Continue()
}

func (a *Application) stepURITooLong(ctx context.Context, st *machine.State) machine.Outcome {
	const maxURILength = 8192 // matches common reverse-proxy defaults
	if len(st.Request.URL.RequestURI()) > maxURILength {
		return a.renderError(dispatch.New(dispatch.UriTooLong, ""), "", st.Request.URL.Path)
	}
	return machine.Continue()
}

func (a *Application) stepMalformedRequest(ctx context.Context, st *machine.State) machine.Outcome {
	malformed, handled, err := a.evalDecisionOverride(ctx, st, "malformed_request")
	if err != nil {
		return a.renderError(dispatch.Wrap(dispatch.BadRequest, err), "", st.Request.URL.Path)
	}
	if handled && malformed {
		return a.renderError(dispatch.New(dispatch.BadRequest, ""), "", st.Request.URL.Path)
	}
	return machine.Continue()
}

func (a *Application) stepAuthorized(ctx context.Context, st *machine.State) machine.Outcome {
	authorized, handled, err := a.evalDecisionOverride(ctx, st, "authorized")
	if err != nil {
		return a.renderError(dispatch.Wrap(dispatch.Unauthorized, err), "", st.Request.URL.Path)
	}
	if handled && !authorized {
		return a.renderError(dispatch.New(dispatch.Unauthorized, ""), "", st.Request.URL.Path)
	}
	return machine.Continue()
}

func (a *Application) stepForbidden(ctx context.Context, st *machine.State) machine.Outcome {
	forbidden, handled, err := a.evalDecisionOverride(ctx, st, "forbidden")
	if err != nil {
		return a.renderError(dispatch.Wrap(dispatch.Forbidden, err), "", st.Request.URL.Path)
	}
	if handled && forbidden {
		return a.renderError(dispatch.New(dispatch.Forbidden, ""), "", st.Request.URL.Path)
	}
	return machine.Continue()
}

func (a *Application) stepContentTypesAccepted(ctx context.Context, st *machine.State) machine.Outcome {
	accepted, handled, err := a.evalDecisionOverride(ctx, st, "content_types_accepted")
	if err != nil {
		return a.renderError(dispatch.Wrap(dispatch.UnsupportedMediaType, err), "", st.Request.URL.Path)
	}
	if handled && !accepted {
		return a.renderError(dispatch.New(dispatch.UnsupportedMediaType, ""), "", st.Request.URL.Path)
	}
	return machine.Continue()
}

// resolveConditionalResource resolves the provider a route names under
// Policy.DecisionOverrides["conditional_request"], if any, and reports
// its value as a conditional.Resource. The conditional_request decision
// point runs before stepExecuteAndRender's handler-scoped
// Policy.Providers resolution, so a route that wants conditional
// evaluation names its resource provider here rather than receiving it
// as a handler parameter.
func (a *Application) resolveConditionalResource(ctx context.Context, st *machine.State) (conditional.Resource, bool) {
	m := a.matchOf(st)
	r := routeOf(m)
	if r == nil || r.Policy.DecisionOverrides == nil {
		return conditional.Resource{}, false
	}
	providerName, ok := r.Policy.DecisionOverrides["conditional_request"]
	if !ok {
		return conditional.Resource{}, false
	}
	rc, _ := st.Extra["request_cache"].(*provider.RequestCache)
	v, err := a.providers.Resolve(ctx, providerName, rc)
	if err != nil {
		return conditional.Resource{}, false
	}
	res, ok := v.(conditional.Resource)
	return res, ok
}

// evalDecisionOverride resolves the provider a route names in
// Policy.DecisionOverrides[stepName], if any, and reports its boolean
// result. handled is false when the route declares no override for
// stepName, in which case the step falls through to its default
// (always-continue) behavior.
func (a *Application) evalDecisionOverride(ctx context.Context, st *machine.State, stepName string) (result, handled bool, err error) {
	m := a.matchOf(st)
	r := routeOf(m)
	if r == nil || r.Policy.DecisionOverrides == nil {
		return false, false, nil
	}
	providerName, ok := r.Policy.DecisionOverrides[stepName]
	if !ok {
		return false, false, nil
	}
	rc, _ := st.Extra["request_cache"].(*provider.RequestCache)
	v, err := a.providers.Resolve(ctx, providerName, rc)
	if err != nil {
		return false, true, err
	}
	b, _ := v.(bool)
	return b, true, nil
}

func (a *Application) stepAcceptExists(ctx context.Context, st *machine.State) machine.Outcome {
	mediaType, providerName, err := a.negotiator.Negotiate(st.Request.Header.Get("Accept"))
	if err != nil {
		return a.renderError(dispatch.New(dispatch.NotAcceptable, ""), "", st.Request.URL.Path)
	}
	st.MediaType = mediaType
	st.Extra["renderer_provider"] = providerName
	return machine.Continue()
}

func (a *Application) stepConditionalRequest(ctx context.Context, st *machine.State) machine.Outcome {
	res, ok := a.resolveConditionalResource(ctx, st)
	if !ok {
		return machine.Continue()
	}
	switch conditional.Evaluate(st.Request.Header, st.Request.Method, res) {
	case conditional.NotModified:
		return machine.HaltResponse(http.StatusNotModified, nil, nil, "")
	case conditional.PreconditionFailed:
		return a.renderError(dispatch.New(dispatch.PreconditionFailed, ""), st.MediaType, st.Request.URL.Path)
	default:
		return machine.Continue()
	}
}

func (a *Application) stepCORSDecorate(ctx context.Context, st *machine.State) machine.Outcome {
	m := a.matchOf(st)
	origin := st.Request.Header.Get("Origin")
	if origin == "" {
		return machine.Continue()
	}
	policy := effectiveCORS(a, routeOf(m))
	if policy == nil {
		return machine.Continue()
	}
	header, ok := policy.Decorate(origin)
	if !ok {
		return machine.Continue()
	}
	st.Extra["cors_header"] = header
	return machine.Continue()
}

func (a *Application) stepExecuteAndRender(ctx context.Context, st *machine.State) machine.Outcome {
	m := a.matchOf(st)
	r := routeOf(m)
	if r == nil {
		return a.renderError(dispatch.New(dispatch.InternalError, "route vanished between lookup and execution"), st.MediaType, "")
	}

	h, ok := r.Handler.(Handler)
	if !ok {
		return a.renderError(dispatch.Wrap(dispatch.InternalError, ErrHandlerNotFound), st.MediaType, "")
	}

	rc, _ := st.Extra["request_cache"].(*provider.RequestCache)
	params, err := a.resolveHandlerParams(ctx, st, r.Policy.Providers, rc)
	if err != nil {
		return a.renderError(dispatch.Wrap(dispatch.BadRequest, err), st.MediaType, "")
	}

	result := h(params)
	return a.renderResult(result, st, r)
}

// resolveHandlerParams builds a handler's argument map: path parameters
// first, then the named providers this route declares via
// route.Policy.Providers, resolved through the application's provider
// registry so a handler can ask for "json_body", "query_params",
// "request_id", or a custom provider by name without the route table
// needing to know provider internals.
func (a *Application) resolveHandlerParams(ctx context.Context, st *machine.State, wantProviders []string, rc *provider.RequestCache) (map[string]any, error) {
	params := map[string]any{}
	for k, v := range st.Params {
		params[k] = v
	}
	for _, name := range wantProviders {
		start := time.Now()
		v, err := a.providers.Resolve(ctx, name, rc)
		if a.metrics != nil {
			scopeLabel := "unknown"
			if scope, ok := a.providers.ScopeOf(name); ok {
				if scope == provider.Application {
					scopeLabel = "application"
				} else {
					scopeLabel = "request"
				}
			}
			a.metrics.ProviderResolve.WithLabelValues(name, scopeLabel).Observe(time.Since(start).Seconds())
		}
		if err != nil {
			return nil, err
		}
		params[name] = v
	}
	return params, nil
}

func (a *Application) renderResult(result HandlerResult, st *machine.State, r *route.Route) machine.Outcome {
	header := http.Header{}
	if h, ok := st.Extra["cors_header"].(http.Header); ok {
		for k, vs := range h {
			header[k] = append(header[k], vs...)
		}
	}
	if policy := effectiveCSP(a, r); policy != nil && !policy.Empty() {
		nonce, err := csp.GenerateNonce()
		if err == nil {
			name, value := policy.Render(nonce)
			header.Set(name, value)
			st.Extra["csp_nonce"] = nonce
		}
	}

	switch v := result.(type) {
	case NoContent:
		return machine.HaltResponse(http.StatusNoContent, header, nil, "")
	case Value:
		return a.render(v.V, http.StatusOK, header, st)
	case ValueStatus:
		return a.render(v.V, v.Status, header, st)
	case ValueStatusHeaders:
		for k, vs := range v.Header {
			header[k] = append(header[k], vs...)
		}
		return a.render(v.V, v.Status, header, st)
	case RawResponse:
		if v.Response == nil {
			return a.renderError(dispatch.Wrap(dispatch.InternalError, ErrResponseNil), st.MediaType, "")
		}
		h := http.Header{}
		for _, k := range v.Response.Header.Keys() {
			h[k] = v.Response.Header.Values(k)
		}
		for k, vs := range header {
			h[k] = append(h[k], vs...)
		}
		return machine.HaltResponse(v.Response.Status, h, v.Response.Body, v.Response.ContentType)
	default:
		return a.renderError(dispatch.New(dispatch.InternalError, "unknown HandlerResult variant"), st.MediaType, "")
	}
}

func (a *Application) render(v any, status int, header http.Header, st *machine.State) machine.Outcome {
	providerName, _ := st.Extra["renderer_provider"].(string)
	body, contentType := marshalWithRenderer(v, providerName)
	return machine.HaltResponse(status, header, body, contentType)
}

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

func routeOf(m route.MatchResult) *route.Route {
	if m.Outcome == route.Matched {
		return m.Route
	}
	return nil
}
