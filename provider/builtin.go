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

	"github.com/google/uuid"
)

// RegisterRequestID adds the built-in "request_id" provider, generating
// a UUIDv4 per request via google/uuid (the teacher's logging and
// tracing packages both thread a request ID through context the same
// way).
func (r *Registry) RegisterRequestID() {
	r.Register(Definition{
		Name:  "request_id",
		Scope: Request,
		Generate: func(ctx context.Context, get func(string) (any, error)) (any, error) {
			return uuid.NewString(), nil
		},
	})
}
