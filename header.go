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

import "strings"

// HeaderMap is a case-insensitive, insertion-ordered multi-map of HTTP
// headers. Keys are normalized to lowercase on insert; iteration via
// Keys preserves first-insertion order, which matters for Set-Cookie
// and for deterministic Vary composition.
type HeaderMap struct {
	order  []string
	values map[string][]string
}

// NewHeaderMap returns an empty HeaderMap ready for use.
func NewHeaderMap() HeaderMap {
	return HeaderMap{values: make(map[string][]string)}
}

func normalizeHeaderKey(key string) string {
	return strings.ToLower(key)
}

// Set replaces all values for key.
func (h *HeaderMap) Set(key, value string) {
	k := normalizeHeaderKey(key)
	if h.values == nil {
		h.values = make(map[string][]string)
	}
	if _, ok := h.values[k]; !ok {
		h.order = append(h.order, k)
	}
	h.values[k] = []string{value}
}

// Add appends a value for key without removing existing values.
func (h *HeaderMap) Add(key, value string) {
	k := normalizeHeaderKey(key)
	if h.values == nil {
		h.values = make(map[string][]string)
	}
	if _, ok := h.values[k]; !ok {
		h.order = append(h.order, k)
	}
	h.values[k] = append(h.values[k], value)
}

// Get returns the first value for key, or "" if absent.
func (h HeaderMap) Get(key string) string {
	vals := h.values[normalizeHeaderKey(key)]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// Values returns all values for key, in insertion order.
func (h HeaderMap) Values(key string) []string {
	return h.values[normalizeHeaderKey(key)]
}

// Has reports whether key has at least one value.
func (h HeaderMap) Has(key string) bool {
	return len(h.values[normalizeHeaderKey(key)]) > 0
}

// Del removes all values for key.
func (h *HeaderMap) Del(key string) {
	k := normalizeHeaderKey(key)
	if _, ok := h.values[k]; !ok {
		return
	}
	delete(h.values, k)
	for i, existing := range h.order {
		if existing == k {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Keys returns header names in first-insertion order, canonicalized.
func (h HeaderMap) Keys() []string {
	keys := make([]string, len(h.order))
	for i, k := range h.order {
		keys[i] = canonicalHeaderKey(k)
	}
	return keys
}

// AddVary appends name to the Vary header if it isn't already present.
func (h *HeaderMap) AddVary(name string) {
	for _, v := range h.Values("Vary") {
		if strings.EqualFold(v, name) {
			return
		}
	}
	h.Add("Vary", name)
}

func canonicalHeaderKey(lower string) string {
	parts := strings.Split(lower, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "-")
}
