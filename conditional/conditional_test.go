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

package conditional

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseETag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		want    ETag
		wantOK  bool
	}{
		{name: "strong", value: `"abc"`, want: ETag{Value: "abc"}, wantOK: true},
		{name: "weak", value: `W/"abc"`, want: ETag{Value: "abc", Weak: true}, wantOK: true},
		{name: "unquoted is malformed", value: "abc", wantOK: false},
		{name: "empty is malformed", value: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseETag(tt.value)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func header(pairs ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Set(pairs[i], pairs[i+1])
	}
	return h
}

func TestEvaluateIfNoneMatch(t *testing.T) {
	t.Parallel()

	etag := ETag{Value: "v1"}
	res := Resource{ETag: &etag}

	tests := []struct {
		name   string
		method string
		header http.Header
		want   Outcome
	}{
		{
			name:   "matching etag on GET is not modified",
			method: http.MethodGet,
			header: header("If-None-Match", `"v1"`),
			want:   NotModified,
		},
		{
			name:   "matching etag on PUT is precondition failed",
			method: http.MethodPut,
			header: header("If-None-Match", `"v1"`),
			want:   PreconditionFailed,
		},
		{
			name:   "non-matching etag proceeds",
			method: http.MethodGet,
			header: header("If-None-Match", `"other"`),
			want:   Proceed,
		},
		{
			name:   "wildcard matches any current representation",
			method: http.MethodGet,
			header: header("If-None-Match", "*"),
			want:   NotModified,
		},
		{
			name:   "weak comparison matches regardless of weakness tag",
			method: http.MethodGet,
			header: header("If-None-Match", `W/"v1"`),
			want:   NotModified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Evaluate(tt.header, tt.method, res))
		})
	}
}

func TestEvaluateIfMatch(t *testing.T) {
	t.Parallel()

	etag := ETag{Value: "v1"}
	res := Resource{ETag: &etag}

	tests := []struct {
		name   string
		header http.Header
		want   Outcome
	}{
		{name: "matching etag proceeds", header: header("If-Match", `"v1"`), want: Proceed},
		{name: "non-matching etag fails precondition", header: header("If-Match", `"other"`), want: PreconditionFailed},
		{name: "wildcard with existing resource proceeds", header: header("If-Match", "*"), want: Proceed},
		{
			name:   "weak etag never satisfies If-Match strong comparison",
			header: header("If-Match", `W/"v1"`),
			want:   PreconditionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Evaluate(tt.header, http.MethodGet, res))
		})
	}
}

func TestEvaluateIfMatchWildcardWithoutResourceFails(t *testing.T) {
	t.Parallel()
	got := Evaluate(header("If-Match", "*"), http.MethodGet, Resource{})
	assert.Equal(t, PreconditionFailed, got)
}

func TestEvaluateDateBasedHeaders(t *testing.T) {
	t.Parallel()

	lastModified := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	res := Resource{LastModified: lastModified}

	t.Run("If-Modified-Since before last-modified proceeds", func(t *testing.T) {
		t.Parallel()
		h := header("If-Modified-Since", lastModified.Add(-time.Hour).Format(http.TimeFormat))
		assert.Equal(t, Proceed, Evaluate(h, http.MethodGet, res))
	})

	t.Run("If-Modified-Since at or after last-modified is not modified", func(t *testing.T) {
		t.Parallel()
		h := header("If-Modified-Since", lastModified.Format(http.TimeFormat))
		assert.Equal(t, NotModified, Evaluate(h, http.MethodGet, res))
	})

	t.Run("If-Unmodified-Since before last-modified fails precondition", func(t *testing.T) {
		t.Parallel()
		h := header("If-Unmodified-Since", lastModified.Add(-time.Hour).Format(http.TimeFormat))
		assert.Equal(t, PreconditionFailed, Evaluate(h, http.MethodPut, res))
	})

	t.Run("If-Unmodified-Since at or after last-modified proceeds", func(t *testing.T) {
		t.Parallel()
		h := header("If-Unmodified-Since", lastModified.Format(http.TimeFormat))
		assert.Equal(t, Proceed, Evaluate(h, http.MethodPut, res))
	})
}

func TestEvaluateMatchBasedHeaderTakesPrecedenceOverDateBased(t *testing.T) {
	t.Parallel()

	etag := ETag{Value: "v1"}
	lastModified := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	res := Resource{ETag: &etag, LastModified: lastModified}

	// If-Match succeeds; If-Unmodified-Since (which would otherwise fail,
	// since the date given is before last-modified) must not be consulted.
	h := header(
		"If-Match", `"v1"`,
		"If-Unmodified-Since", lastModified.Add(-time.Hour).Format(http.TimeFormat),
	)
	assert.Equal(t, Proceed, Evaluate(h, http.MethodPut, res))
}

func TestEvaluateNoConditionalHeadersProceeds(t *testing.T) {
	t.Parallel()
	etag := ETag{Value: "v1"}
	res := Resource{ETag: &etag}
	assert.Equal(t, Proceed, Evaluate(http.Header{}, http.MethodGet, res))
}
