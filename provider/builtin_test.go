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

package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRequestIDGeneratesDistinctValuesPerRequest(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.RegisterRequestID()
	require.NoError(t, r.Freeze(nil))

	ctx := context.Background()
	v1, err := r.Resolve(ctx, "request_id", NewRequestCache())
	require.NoError(t, err)
	v2, err := r.Resolve(ctx, "request_id", NewRequestCache())
	require.NoError(t, err)

	assert.NotEmpty(t, v1)
	assert.NotEqual(t, v1, v2)
}

func TestRegisterRequestBuiltinsReadFromRequestContext(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.RegisterRequestBuiltins()
	require.NoError(t, r.Freeze(nil))

	rc := &RequestContext{
		PathParams:  map[string]string{"id": "42"},
		QueryParams: map[string][]string{"q": {"hello"}},
		Header:      map[string][]string{"X-Test": {"1"}},
		RawBody:     func() ([]byte, error) { return []byte(`{"a":1}`), nil },
		JSONBody:    func() (any, error) { return map[string]any{"a": float64(1)}, nil },
	}
	ctx := WithRequestContext(context.Background(), rc)
	cache := NewRequestCache()

	pathParams, err := r.Resolve(ctx, "path_params", cache)
	require.NoError(t, err)
	assert.Equal(t, rc.PathParams, pathParams)

	queryParams, err := r.Resolve(ctx, "query_params", cache)
	require.NoError(t, err)
	assert.Equal(t, rc.QueryParams, queryParams)

	headers, err := r.Resolve(ctx, "headers", cache)
	require.NoError(t, err)
	assert.Equal(t, rc.Header, headers)

	body, err := r.Resolve(ctx, "body", cache)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), body)

	jsonBody, err := r.Resolve(ctx, "json_body", cache)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, jsonBody)
}

func TestRegisterRequestBuiltinsWithoutContextErrors(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.RegisterRequestBuiltins()
	require.NoError(t, r.Freeze(nil))

	_, err := r.Resolve(context.Background(), "path_params", NewRequestCache())
	assert.Error(t, err)
}
