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

// Package csp implements spec.md's C8: a directive-map Content-Security-
// Policy engine with per-request nonce generation and auto-quoting of
// the closed CSP keyword set. The teacher's
// router/middleware/security.go carries CSP as a single opaque string
// (WithContentSecurityPolicy(value string)); this package generalizes
// that into a structured directive map so auto-quoting and per-request
// nonce substitution can work without string surgery.
package csp

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
)

// keyword is the closed set of CSP source tokens that must be quoted
// (wrapped in single quotes) in the rendered header. Anything not in
// this set — a host, scheme, or "*" — is emitted bare.
var keyword = map[string]bool{
	"self":             true,
	"none":             true,
	"unsafe-inline":    true,
	"unsafe-eval":      true,
	"unsafe-hashes":    true,
	"strict-dynamic":   true,
	"report-sample":    true,
	"wasm-unsafe-eval": true,
}

// NonceSource is a marker token for a directive value that should be
// replaced with this request's generated nonce, rendered as
// 'nonce-<value>'. Use it in place of a literal source token, e.g.
// csp.New().Set("script-src", "'self'", csp.NonceSource).
const NonceSource = "{nonce}"

// Policy is an ordered set of directive names to source-list values.
// Directive order is preserved in the rendered header so two Policy
// values with the same directives render identically (useful for tests
// and for diffing logs).
type Policy struct {
	order      []string
	directives map[string][]string
	reportOnly bool
}

// New builds an empty Policy. Use Set to populate directives.
func New() *Policy {
	return &Policy{directives: make(map[string][]string)}
}

// ReportOnly marks the policy to render as Content-Security-Policy-Report-Only.
func (p *Policy) ReportOnly(enable bool) *Policy {
	p.reportOnly = enable
	return p
}

// Set assigns a directive's source list, auto-quoting recognized
// keywords. Calling Set twice for the same directive replaces the prior
// value rather than merging (matching spec.md §3's "never merge"
// inheritance rule).
func (p *Policy) Set(directive string, sources ...string) *Policy {
	if _, exists := p.directives[directive]; !exists {
		p.order = append(p.order, directive)
	}
	p.directives[directive] = sources
	return p
}

func quote(token string) string {
	if keyword[strings.Trim(token, "'")] {
		return "'" + strings.Trim(token, "'") + "'"
	}
	return token
}

// Render produces the header name and value for this policy, with any
// NonceSource tokens substituted for nonce. An empty Policy renders an
// empty value; callers should skip emitting the header entirely in that
// case (checked via Empty).
func (p *Policy) Render(nonce string) (headerName, value string) {
	headerName = "Content-Security-Policy"
	if p.reportOnly {
		headerName = "Content-Security-Policy-Report-Only"
	}

	// Directive order as registered, but rendered deterministically:
	// iterate p.order (insertion order) rather than sorting, matching
	// how authors typically read a CSP header (default-src first, etc.)
	var b strings.Builder
	for i, directive := range p.order {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(directive)
		for _, src := range p.directives[directive] {
			tok := src
			if tok == NonceSource {
				tok = fmt.Sprintf("'nonce-%s'", nonce)
			} else {
				tok = quote(tok)
			}
			b.WriteByte(' ')
			b.WriteString(tok)
		}
	}
	return headerName, b.String()
}

// Directives returns the configured directive names in registration
// order, for diagnostics/tests.
func (p *Policy) Directives() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Empty reports whether no directives have been configured.
func (p *Policy) Empty() bool { return len(p.order) == 0 }

// sortedKeywords is used only by tests to assert the closed keyword set
// without exposing the map itself.
func sortedKeywords() []string {
	out := make([]string, 0, len(keyword))
	for k := range keyword {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// GenerateNonce returns a fresh 256-bit random nonce, encoded as
// unpadded URL-safe base64, suitable for a 'nonce-<value>' CSP source and
// a matching nonce="..." HTML attribute. One nonce is generated per
// request by the decision machine (spec.md §4.7), never reused across
// requests.
func GenerateNonce() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
