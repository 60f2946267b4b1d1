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

import "sort"

// node is one segment position in the route tree. Grounded in the
// teacher's router/radix.go node struct, but simplified from a byte-trie
// radix structure to a per-segment edge list: spec.md's path templates
// are segment-granular ("{id}" matches exactly one segment), so there's
// no benefit to the teacher's byte-level common-prefix splitting.
type node struct {
	literalEdges map[string]*node
	param        *node
	paramName    string
	routes       map[string]*Route // method -> route registered exactly at this node
}

func newNode() *node {
	return &node{literalEdges: make(map[string]*node), routes: make(map[string]*Route)}
}

// Table is a registered set of routes, matched by method and path.
// Grounded in router/radix.go's CompiledRouteTable, minus the bloom
// filter and compiled-route cache (those are router-level performance
// optimizations orthogonal to spec.md's C2 contract).
type Table struct {
	root *node
}

// NewTable returns an empty route table.
func NewTable() *Table {
	return &Table{root: newNode()}
}

// Register adds a route for method+template. It panics on a duplicate
// method+template registration (a programming error caught at startup,
// same posture as the teacher's router.MustNew family).
func (t *Table) Register(method string, tmpl *Template, r *Route) {
	n := t.root
	for _, seg := range tmpl.segments {
		switch seg.kind {
		case segmentParam:
			if n.param == nil {
				n.param = newNode()
				n.paramName = seg.name
			}
			n = n.param
		default:
			child, ok := n.literalEdges[seg.literal]
			if !ok {
				child = newNode()
				n.literalEdges[seg.literal] = child
			}
			n = child
		}
	}
	if _, exists := n.routes[method]; exists {
		panic("route: duplicate registration for " + method + " " + tmpl.raw)
	}
	n.routes[method] = r
}

// MatchOutcome classifies a Lookup result.
type MatchOutcome int

const (
	// Matched indicates a route was found for the given method and path.
	Matched MatchOutcome = iota
	// NotFound indicates no route matches the path for any method.
	NotFound
	// MethodNotAllowed indicates the path matches but not for this
	// method; AllowedMethods() on the result lists the valid ones.
	MethodNotAllowed
)

// MatchResult is the outcome of a Lookup.
type MatchResult struct {
	Outcome MatchOutcome
	Route   *Route
	Params  map[string]string
	allowed []string
}

// AllowedMethods returns the sorted set of methods valid for this path,
// populated only when Outcome == MethodNotAllowed. Sorted per spec.md's
// Boundary Scenario 1 (deterministic Allow header ordering).
func (m MatchResult) AllowedMethods() []string {
	out := append([]string{}, m.allowed...)
	sort.Strings(out)
	return out
}

// Lookup matches method and path against the table. Longest literal
// match wins at each segment position: a literal edge is always tried
// before the parameter edge, so "/users/me" prefers a literal "me"
// route over "/users/{id}" when both are registered.
func (t *Table) Lookup(method, path string) MatchResult {
	segments, _ := segmentsOf(path)

	n := t.root
	params := map[string]string{}
	if ok := t.walk(n, segments, params); ok != nil {
		return t.finish(ok, method, params)
	}
	return MatchResult{Outcome: NotFound}
}

func (t *Table) walk(n *node, segments []string, params map[string]string) *node {
	if len(segments) == 0 {
		return n
	}
	head, rest := segments[0], segments[1:]

	if child, ok := n.literalEdges[head]; ok {
		if found := t.walk(child, rest, params); found != nil {
			return found
		}
	}
	if n.param != nil {
		params[n.paramName] = head
		if found := t.walk(n.param, rest, params); found != nil {
			return found
		}
		delete(params, n.paramName)
	}
	return nil
}

func (t *Table) finish(n *node, method string, params map[string]string) MatchResult {
	if len(n.routes) == 0 {
		return MatchResult{Outcome: NotFound}
	}
	if r, ok := n.routes[method]; ok {
		return MatchResult{Outcome: Matched, Route: r, Params: params}
	}
	allowed := make([]string, 0, len(n.routes))
	for m := range n.routes {
		allowed = append(allowed, m)
	}
	return MatchResult{Outcome: MethodNotAllowed, allowed: allowed}
}
