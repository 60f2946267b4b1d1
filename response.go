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
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Response is constructed only by the decision machine or error
// dispatch; handlers never build one directly (they return a
// HandlerResult instead), except when they opt out via RawResponse.
type Response struct {
	Status      int
	Header      HeaderMap
	Body        []byte
	ContentType string
}

// NewResponse returns an empty 200 response with no body.
func NewResponse() *Response {
	return &Response{Status: http.StatusOK, Header: NewHeaderMap()}
}

// WriteTo writes the response onto a net/http ResponseWriter. Headers are
// emitted as UTF-8; the net/http package itself falls back to raw bytes
// for anything outside the normal header token/value grammar, which is
// the latin-1-compatible behavior spec.md's adapter contract asks for.
func (resp *Response) WriteTo(w http.ResponseWriter) {
	h := w.Header()
	for _, key := range resp.Header.Keys() {
		for _, v := range resp.Header.Values(key) {
			h.Add(key, v)
		}
	}
	if resp.ContentType != "" && h.Get("Content-Type") == "" {
		h.Set("Content-Type", resp.ContentType)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

// CacheControlOption configures the Cache-Control header builder.
// Ported from the teacher router's functional-option Cache-Control
// builder (router/cache_control.go); ground truth for the directive set
// and ordering.
type CacheControlOption func(*cacheControlConfig)

type cacheControlConfig struct {
	public, private, noStore, noCache bool
	maxAge, staleWhileRevalidate, staleIfError time.Duration
}

// WithPublic marks the response cacheable by shared caches.
func WithPublic() CacheControlOption { return func(c *cacheControlConfig) { c.public = true } }

// WithPrivate marks the response cacheable only by the end client.
func WithPrivate() CacheControlOption { return func(c *cacheControlConfig) { c.private = true } }

// WithNoStore forbids any cache from storing the response.
func WithNoStore() CacheControlOption { return func(c *cacheControlConfig) { c.noStore = true } }

// WithNoCache requires revalidation before reuse of any cached copy.
func WithNoCache() CacheControlOption { return func(c *cacheControlConfig) { c.noCache = true } }

// WithMaxAge sets the max-age directive.
func WithMaxAge(d time.Duration) CacheControlOption {
	return func(c *cacheControlConfig) {
		if d > 0 {
			c.maxAge = d
		}
	}
}

// WithStaleWhileRevalidate sets the stale-while-revalidate directive (RFC 5861).
func WithStaleWhileRevalidate(d time.Duration) CacheControlOption {
	return func(c *cacheControlConfig) {
		if d > 0 {
			c.staleWhileRevalidate = d
		}
	}
}

// WithStaleIfError sets the stale-if-error directive.
func WithStaleIfError(d time.Duration) CacheControlOption {
	return func(c *cacheControlConfig) {
		if d > 0 {
			c.staleIfError = d
		}
	}
}

// CacheControl composes and sets the Cache-Control header from opts.
func (resp *Response) CacheControl(opts ...CacheControlOption) {
	cfg := &cacheControlConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	parts := make([]string, 0, 7)
	if cfg.public {
		parts = append(parts, "public")
	}
	if cfg.private {
		parts = append(parts, "private")
	}
	if cfg.noStore {
		parts = append(parts, "no-store")
	}
	if cfg.noCache {
		parts = append(parts, "no-cache")
	}
	if cfg.maxAge > 0 {
		parts = append(parts, fmt.Sprintf("max-age=%d", int(cfg.maxAge.Seconds())))
	}
	if cfg.staleWhileRevalidate > 0 {
		parts = append(parts, fmt.Sprintf("stale-while-revalidate=%d", int(cfg.staleWhileRevalidate.Seconds())))
	}
	if cfg.staleIfError > 0 {
		parts = append(parts, fmt.Sprintf("stale-if-error=%d", int(cfg.staleIfError.Seconds())))
	}
	if len(parts) > 0 {
		resp.Header.Set("Cache-Control", strings.Join(parts, ", "))
	}
}
