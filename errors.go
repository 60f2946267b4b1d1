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

import "errors"

// Static errors for request/response value-model failures. These are
// wrapped with fmt.Errorf and %w where a caller needs more context.
var (
	ErrMultipleJSONValues = errors.New("wmcore: request body must contain a single JSON value")
	ErrResponseNil        = errors.New("wmcore: response is nil")
	ErrHandlerNotFound    = errors.New("wmcore: no handler registered for route")
)
