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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRegister(t *testing.T, tbl *Table, method, path string) *Route {
	t.Helper()
	tmpl, err := Compile(path)
	require.NoError(t, err)
	r := &Route{Method: method, Template: tmpl, Name: path}
	tbl.Register(method, tmpl, r)
	return r
}

func TestTableLookupLiteralPreferredOverParam(t *testing.T) {
	t.Parallel()

	tbl := NewTable()
	literalRoute := mustRegister(t, tbl, "GET", "/users/me")
	mustRegister(t, tbl, "GET", "/users/{id}")

	result := tbl.Lookup("GET", "/users/me")
	require.Equal(t, Matched, result.Outcome)
	assert.Same(t, literalRoute, result.Route)
}

func TestTableLookupParamBinds(t *testing.T) {
	t.Parallel()

	tbl := NewTable()
	paramRoute := mustRegister(t, tbl, "GET", "/users/{id}")

	result := tbl.Lookup("GET", "/users/42")
	require.Equal(t, Matched, result.Outcome)
	assert.Same(t, paramRoute, result.Route)
	assert.Equal(t, "42", result.Params["id"])
}

func TestTableLookupNotFound(t *testing.T) {
	t.Parallel()

	tbl := NewTable()
	mustRegister(t, tbl, "GET", "/users/{id}")

	result := tbl.Lookup("GET", "/orders/42")
	assert.Equal(t, NotFound, result.Outcome)
}

func TestTableLookupMethodNotAllowedListsSortedMethods(t *testing.T) {
	t.Parallel()

	tbl := NewTable()
	mustRegister(t, tbl, "POST", "/users/{id}")
	mustRegister(t, tbl, "GET", "/users/{id}")
	mustRegister(t, tbl, "DELETE", "/users/{id}")

	result := tbl.Lookup("PUT", "/users/42")
	require.Equal(t, MethodNotAllowed, result.Outcome)
	assert.Equal(t, []string{"DELETE", "GET", "POST"}, result.AllowedMethods())
}

func TestTableRegisterDuplicatePanics(t *testing.T) {
	t.Parallel()

	tbl := NewTable()
	mustRegister(t, tbl, "GET", "/users/{id}")

	assert.Panics(t, func() {
		mustRegister(t, tbl, "GET", "/users/{id}")
	})
}

func TestTableLookupRoot(t *testing.T) {
	t.Parallel()

	tbl := NewTable()
	rootRoute := mustRegister(t, tbl, "GET", "/")

	result := tbl.Lookup("GET", "/")
	require.Equal(t, Matched, result.Outcome)
	assert.Same(t, rootRoute, result.Route)
}

func TestTableLookupBacktracksPastFailedLiteralMatch(t *testing.T) {
	t.Parallel()

	// "/users/me/posts" has no literal route, so the walk must backtrack
	// from the "me" literal edge to the "{id}" param edge to find
	// "/users/{id}/posts".
	tbl := NewTable()
	paramRoute := mustRegister(t, tbl, "GET", "/users/{id}/posts")
	mustRegister(t, tbl, "GET", "/users/me")

	result := tbl.Lookup("GET", "/users/me/posts")
	require.Equal(t, Matched, result.Outcome)
	assert.Same(t, paramRoute, result.Route)
	assert.Equal(t, "me", result.Params["id"])
}
