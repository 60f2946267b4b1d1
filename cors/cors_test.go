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

package cors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsWildcardWithCredentials(t *testing.T) {
	t.Parallel()

	p := New(WithAllowAllOrigins(true), WithAllowCredentials(true))
	assert.ErrorIs(t, p.Validate(), ErrWildcardWithCredentials)
}

func TestValidateAllowsWildcardWithCredentialsWhenReflecting(t *testing.T) {
	t.Parallel()

	p := New(WithAllowAllOrigins(true), WithAllowCredentials(true), WithReflectAnyOrigin(true))
	assert.NoError(t, p.Validate())
}

func TestDecorateExactOriginMatch(t *testing.T) {
	t.Parallel()

	p := New(WithAllowedOrigins("https://example.com"))
	h, ok := p.Decorate("https://example.com")
	require.True(t, ok)
	assert.Equal(t, "https://example.com", h.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", h.Get("Vary"))
}

func TestDecorateRejectsUnlistedOrigin(t *testing.T) {
	t.Parallel()

	p := New(WithAllowedOrigins("https://example.com"))
	_, ok := p.Decorate("https://evil.example")
	assert.False(t, ok)
}

func TestDecorateAllowAllOriginsEmitsWildcardWithoutCredentials(t *testing.T) {
	t.Parallel()

	p := New(WithAllowAllOrigins(true))
	h, ok := p.Decorate("https://example.com")
	require.True(t, ok)
	assert.Equal(t, "*", h.Get("Access-Control-Allow-Origin"))
}

func TestDecorateAllowAllOriginsWithCredentialsReflectsOrigin(t *testing.T) {
	t.Parallel()

	p := New(WithAllowAllOrigins(true), WithAllowCredentials(true), WithReflectAnyOrigin(true))
	h, ok := p.Decorate("https://example.com")
	require.True(t, ok)
	assert.Equal(t, "https://example.com", h.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", h.Get("Access-Control-Allow-Credentials"))
}

func TestDecorateExposedHeaders(t *testing.T) {
	t.Parallel()

	p := New(WithAllowAllOrigins(true), WithExposedHeaders("X-Request-Id", "X-Trace-Id"))
	h, ok := p.Decorate("https://example.com")
	require.True(t, ok)
	assert.Equal(t, "X-Request-Id, X-Trace-Id", h.Get("Access-Control-Expose-Headers"))
}

func TestPreflightRejectsUnlistedOrigin(t *testing.T) {
	t.Parallel()

	p := New(WithAllowedOrigins("https://example.com"))
	_, ok := p.Preflight("https://evil.example", []string{http.MethodGet})
	assert.False(t, ok)
}

func TestPreflightUsesAutoMethodsWhenNotConfigured(t *testing.T) {
	t.Parallel()

	p := New(WithAllowedOrigins("https://example.com"))
	h, ok := p.Preflight("https://example.com", []string{http.MethodGet, http.MethodPost})
	require.True(t, ok)
	assert.Equal(t, "GET, POST, OPTIONS", h.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Origin, Content-Type, Accept, Authorization", h.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "3600", h.Get("Access-Control-Max-Age"))
}

func TestPreflightExplicitAllowedMethodsOverridesAutoDetection(t *testing.T) {
	t.Parallel()

	p := New(WithAllowedOrigins("https://example.com"), WithAllowedMethods("GET"))
	h, ok := p.Preflight("https://example.com", []string{http.MethodGet, http.MethodPost, http.MethodDelete})
	require.True(t, ok)
	assert.Equal(t, "GET", h.Get("Access-Control-Allow-Methods"))
}

func TestPreflightWithAllowOriginFunc(t *testing.T) {
	t.Parallel()

	p := New(WithAllowOriginFunc(func(origin string) bool {
		return origin == "https://trusted.example"
	}))

	_, ok := p.Preflight("https://untrusted.example", nil)
	assert.False(t, ok)

	h, ok := p.Preflight("https://trusted.example", []string{http.MethodGet})
	require.True(t, ok)
	assert.Equal(t, "https://trusted.example", h.Get("Access-Control-Allow-Origin"))
}
