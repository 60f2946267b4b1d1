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
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rivaas-dev/wmcore/cors"
	"github.com/rivaas-dev/wmcore/csp"
	"github.com/rivaas-dev/wmcore/dispatch"
	"github.com/rivaas-dev/wmcore/lifecycle"
	"github.com/rivaas-dev/wmcore/logging"
	"github.com/rivaas-dev/wmcore/machine"
	"github.com/rivaas-dev/wmcore/metrics"
	"github.com/rivaas-dev/wmcore/negotiate"
	"github.com/rivaas-dev/wmcore/provider"
	"github.com/rivaas-dev/wmcore/route"
	"github.com/rivaas-dev/wmcore/validation"
)

// Application is the top-level object: register routes and providers
// against it, call Finalize, then use it as an http.Handler (or pass it
// to http.Server directly, as the teacher's app.Run does).
type Application struct {
	table      *route.Table
	providers  *provider.Registry
	negotiator *negotiate.Negotiator
	errors     *dispatch.Registry
	hooks      *lifecycle.Hooks

	defaultCORS *cors.Policy
	defaultCSP  *csp.Policy

	declaredDeps map[string][]string
	finalized    bool

	machine *machine.Machine

	logger    *slog.Logger
	metrics   *metrics.Collectors
	validator *validation.Validator
}

// Option configures an Application at construction time, matching the
// teacher's app.Option functional-option pattern.
type Option func(*Application)

// WithCORS installs the app-level default CORS policy, inherited by
// every route unless overridden (spec.md §3).
func WithCORS(p *cors.Policy) Option { return func(a *Application) { a.defaultCORS = p } }

// WithCSP installs the app-level default CSP policy.
func WithCSP(p *csp.Policy) Option { return func(a *Application) { a.defaultCSP = p } }

// WithLogger installs the ambient slog.Logger used for decision-machine
// diagnostics (build one with the logging package).
func WithLogger(l *slog.Logger) Option { return func(a *Application) { a.logger = l } }

// WithMetrics installs a prometheus.Registerer to collect decision-
// machine and provider-resolution metrics against. A fresh
// metrics.Collectors is built and registered immediately.
func WithMetrics(namespace string, reg prometheus.Registerer) Option {
	return func(a *Application) {
		c := metrics.NewCollectors(namespace)
		c.MustRegister(reg)
		a.metrics = c
	}
}

// WithValidator installs the struct-tag validator, exposed to handlers
// as the "validator" application-scope provider.
func WithValidator() Option {
	return func(a *Application) {
		a.validator = validation.New()
	}
}

// New builds an Application. Providers and routes are registered after
// construction via Handle/Register and the Registry returned by
// Providers(); call Finalize before serving.
func New(opts ...Option) *Application {
	a := &Application{
		table:        route.NewTable(),
		providers:    provider.NewRegistry(),
		negotiator:   negotiate.NewNegotiator(),
		errors:       dispatch.NewRegistry(),
		hooks:        lifecycle.New(),
		declaredDeps: make(map[string][]string),
	}
	a.providers.RegisterRequestID()
	a.providers.RegisterRequestBuiltins()
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.New()
	}
	if a.validator != nil {
		a.providers.Register(provider.Definition{
			Name:  "validator",
			Scope: provider.Application,
			Generate: func(ctx context.Context, get func(string) (any, error)) (any, error) {
				return a.validator, nil
			},
		})
	}
	return a
}

// Providers returns the application's provider registry, for
// registering custom providers before Finalize.
func (a *Application) Providers() *provider.Registry { return a.providers }

// Negotiator returns the content negotiator, for registering renderers
// before Finalize.
func (a *Application) Negotiator() *negotiate.Negotiator { return a.negotiator }

// Errors returns the error-dispatch registry, for registering custom
// error renderers before Finalize.
func (a *Application) Errors() *dispatch.Registry { return a.errors }

// Hooks returns the lifecycle hook queues.
func (a *Application) Hooks() *lifecycle.Hooks { return a.hooks }

// DeclareDependency records that provider name depends on dependsOn, so
// Finalize's cycle check considers the edge. Providers whose Generate
// closure calls its get func only for the names a registration ever
// declares here are the ones cycle detection can actually protect;
// undeclared transitive calls through get are resolved at runtime and
// are caught only by provider.Registry.Resolve's re-entrancy guard,
// which covers request-scoped providers only.
func (a *Application) DeclareDependency(name, dependsOn string) {
	if a.finalized {
		panic("wmcore: DeclareDependency called after Finalize")
	}
	a.declaredDeps[name] = append(a.declaredDeps[name], dependsOn)
}

// Handle registers a route. method is an HTTP method string; pathTmpl
// is compiled via route.Compile. h is the handler; policy carries
// per-route overrides (nil fields inherit from the application level).
func (a *Application) Handle(method, pathTmpl string, h Handler, policy route.Policy) error {
	if a.finalized {
		panic("wmcore: Handle called after Finalize")
	}
	tmpl, err := route.Compile(pathTmpl)
	if err != nil {
		return err
	}
	r := &route.Route{Method: method, Template: tmpl, Handler: h, Policy: policy, Name: pathTmpl}
	a.table.Register(method, tmpl, r)
	a.hooks.FireRoute(r.Name, method, pathTmpl)
	return nil
}

// Finalize validates the assembled configuration (CORS wildcard+
// credentials combinations, provider dependency cycles) and freezes the
// Application for serving. Unlike the teacher's router.MustNew, which
// panics on invalid config, Finalize returns an error: Application
// values here are typically assembled across several calls, and a
// returned error is easier for a caller's main() to report cleanly than
// a panic from deep inside option processing.
func (a *Application) Finalize() error {
	if a.defaultCORS != nil {
		if err := a.defaultCORS.Validate(); err != nil {
			return err
		}
	}
	if err := a.providers.Freeze(a.declaredDeps); err != nil {
		return err
	}
	a.hooks.Freeze()
	a.machine = machine.New(machine.DefaultStepOrder, a.buildSteps())
	a.finalized = true
	return nil
}

// Start resolves every application-scope provider in dependency order
// (returning the first resolution error), runs registered start hooks
// sequentially, then fires ready hooks asynchronously, mirroring
// app/lifecycle.go's executeStartHooks + executeReadyHooks sequencing.
func (a *Application) Start(ctx context.Context) error {
	for _, name := range a.providers.TopoOrder() {
		if scope, _ := a.providers.ScopeOf(name); scope != provider.Application {
			continue
		}
		if _, err := a.providers.Resolve(ctx, name, nil); err != nil {
			return err
		}
	}
	if err := a.hooks.ExecuteStart(ctx); err != nil {
		return err
	}
	a.hooks.ExecuteReady()
	return nil
}

// Shutdown runs shutdown hooks (LIFO) then stop hooks (best-effort).
func (a *Application) Shutdown(ctx context.Context) {
	a.hooks.ExecuteShutdown(ctx)
	a.hooks.ExecuteStop()
}

// ServeHTTP implements http.Handler by running the decision machine
// against the incoming request.
func (a *Application) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !a.finalized {
		panic("wmcore: ServeHTTP called before Finalize")
	}

	start := time.Now()
	match := a.table.Lookup(r.Method, r.URL.Path)
	st := machine.NewState(r, match.Params)
	st.Extra["match"] = match
	st.Extra["request_cache"] = provider.NewRequestCache()
	defer func() {
		if rc, ok := st.Extra["request_cache"].(*provider.RequestCache); ok {
			a.providers.Close(rc)
		}
	}()

	bypass := false
	if match.Outcome == route.Matched {
		bypass = match.Route.Policy.Bypass
	}

	reqBody, jsonBody := bodyAccessors(r)
	ctx := provider.WithRequestContext(r.Context(), &provider.RequestContext{
		PathParams:  match.Params,
		QueryParams: r.URL.Query(),
		Header:      r.Header,
		RawBody:     reqBody,
		JSONBody:    jsonBody,
	})

	outcome, haltedAt := a.machine.Run(ctx, st, bypass)
	writeOutcome(w, outcome)

	status := outcome.Status
	if status == 0 {
		status = http.StatusOK
	}
	logLevel := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		logLevel = slog.LevelError
	} else if status >= http.StatusBadRequest {
		logLevel = slog.LevelWarn
	}
	logger := a.logger
	if rc, ok := st.Extra["request_cache"].(*provider.RequestCache); ok {
		if v, err := a.providers.Resolve(ctx, "request_id", rc); err == nil {
			if id, ok := v.(string); ok {
				logger = logging.WithRequestID(logger, id)
			}
		}
	}
	logger.Log(ctx, logLevel, "request",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	)

	if a.metrics != nil {
		routeName := r.URL.Path
		if match.Outcome == route.Matched {
			routeName = match.Route.Name
		}
		a.metrics.RequestDuration.WithLabelValues(routeName, http.StatusText(status)).Observe(time.Since(start).Seconds())
		if haltedAt != "" && haltedAt != "execute_and_render" {
			a.metrics.DecisionHalts.WithLabelValues(haltedAt, http.StatusText(status)).Inc()
		}
	}
}

// bodyAccessors lazily reads and memoizes the request body exactly
// once, shared by the "body" and "json_body" built-in providers
// regardless of which (or both) a handler asks for.
func bodyAccessors(r *http.Request) (raw func() ([]byte, error), jsonBody func() (any, error)) {
	req := NewRequestFromHTTP(r)
	return req.Body, req.JSONBody
}

func writeOutcome(w http.ResponseWriter, o machine.Outcome) {
	for k, vs := range o.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if o.ContentType != "" && w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", o.ContentType)
	}
	status := o.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(o.Body) > 0 {
		_, _ = w.Write(o.Body)
	}
}

func effectiveCORS(a *Application, r *route.Route) *cors.Policy {
	if r != nil && r.Policy.CORS != nil {
		return r.Policy.CORS
	}
	return a.defaultCORS
}

func effectiveCSP(a *Application, r *route.Route) *csp.Policy {
	if r != nil && r.Policy.CSP != nil {
		return r.Policy.CSP
	}
	return a.defaultCSP
}
