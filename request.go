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
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
)

// RequestMethod is a closed enum over the HTTP methods the decision
// machine recognizes, plus MethodUnknown for anything else. The
// decision machine has no known_method step: a request with an
// unrecognized method is routed like any other and gets the route
// table's 404 or 405, not a 501.
type RequestMethod string

// Recognized request methods. MethodUnknown is not itself a valid
// inbound method; it is what NewRequestFromHTTP assigns when the
// incoming method doesn't match one of the others.
const (
	MethodGet     RequestMethod = "GET"
	MethodPost    RequestMethod = "POST"
	MethodPut     RequestMethod = "PUT"
	MethodPatch   RequestMethod = "PATCH"
	MethodDelete  RequestMethod = "DELETE"
	MethodHead    RequestMethod = "HEAD"
	MethodOptions RequestMethod = "OPTIONS"
	MethodUnknown RequestMethod = "UNKNOWN"
)

func parseMethod(s string) RequestMethod {
	switch s {
	case "GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS":
		return RequestMethod(s)
	default:
		return MethodUnknown
	}
}

// ParamMap is an ordered string->string map for path parameters,
// preserving the order the route template declared them in.
type ParamMap struct {
	keys   []string
	values []string
}

// Get returns the value bound to name, and whether it was present.
func (p ParamMap) Get(name string) (string, bool) {
	for i, k := range p.keys {
		if k == name {
			return p.values[i], true
		}
	}
	return "", false
}

// Set binds name to value, appending if name is new.
func (p *ParamMap) Set(name, value string) {
	for i, k := range p.keys {
		if k == name {
			p.values[i] = value
			return
		}
	}
	p.keys = append(p.keys, name)
	p.values = append(p.values, value)
}

// Len reports the number of bound parameters.
func (p ParamMap) Len() int { return len(p.keys) }

// Each calls fn for every bound parameter, in binding order.
func (p ParamMap) Each(fn func(name, value string)) {
	for i, k := range p.keys {
		fn(k, p.values[i])
	}
}

// Request is the immutable value the decision machine operates on.
// Construction happens once, via NewRequestFromHTTP or a adapter's own
// constructor; nothing downstream mutates it except to populate the
// lazily-parsed body fields, which are guarded by sync.Once so a body is
// read and decoded at most once per request regardless of how many
// decision points or providers ask for it.
type Request struct {
	Method      RequestMethod
	Path        string
	PathParams  ParamMap
	Query       url.Values
	Header      HeaderMap
	Extensions  map[string]any

	rawBody     []byte
	bodyOnce    sync.Once
	bodyErr     error

	jsonOnce sync.Once
	jsonBody any
	jsonErr  error

	formOnce sync.Once
	formBody url.Values
	formErr  error

	bodyReader io.ReadCloser
}

// NewRequestFromHTTP builds a Request from a net/http request. The body
// is not read here; it is read lazily, at most once, the first time Body,
// JSONBody, or FormBody is called.
func NewRequestFromHTTP(r *http.Request) *Request {
	hdr := NewHeaderMap()
	for k, vs := range r.Header {
		for _, v := range vs {
			hdr.Add(k, v)
		}
	}

	ext := map[string]any{}
	if r.TLS != nil {
		ext["tls_peer_cert"] = r.TLS
	}

	return &Request{
		Method:     parseMethod(r.Method),
		Path:       r.URL.Path,
		Query:      r.URL.Query(),
		Header:     hdr,
		Extensions: ext,
		bodyReader: r.Body,
	}
}

// Body returns the raw request body, reading it from the underlying
// reader the first time it's called and memoizing the result (and any
// read error) for subsequent calls.
func (req *Request) Body() ([]byte, error) {
	req.bodyOnce.Do(func() {
		if req.bodyReader == nil {
			return
		}
		defer req.bodyReader.Close()
		req.rawBody, req.bodyErr = io.ReadAll(req.bodyReader)
	})
	return req.rawBody, req.bodyErr
}

// JSONBody decodes the body as a single JSON value, memoizing the
// result. A body containing more than one JSON value is an error.
func (req *Request) JSONBody() (any, error) {
	req.jsonOnce.Do(func() {
		raw, err := req.Body()
		if err != nil {
			req.jsonErr = err
			return
		}
		if len(raw) == 0 {
			return
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		if err := dec.Decode(&req.jsonBody); err != nil {
			req.jsonErr = err
			return
		}
		if dec.More() {
			req.jsonErr = ErrMultipleJSONValues
		}
	})
	return req.jsonBody, req.jsonErr
}

// FormBody parses the body as application/x-www-form-urlencoded,
// memoizing the result.
func (req *Request) FormBody() (url.Values, error) {
	req.formOnce.Do(func() {
		raw, err := req.Body()
		if err != nil {
			req.formErr = err
			return
		}
		req.formBody, req.formErr = url.ParseQuery(string(raw))
	})
	return req.formBody, req.formErr
}
