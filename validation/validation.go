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

// Package validation wraps go-playground/validator/v10 struct-tag
// validation into a single FieldErrors value the dispatch package can
// render as RFC 7807 problem detail. Grounded in the teacher's
// validation package, which layers the same library under a
// domain-specific presence/defaulting system; this package keeps only
// the struct-tag validation slice the content negotiator and error
// dispatch need.
package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed validation rule, shaped for RFC 7807
// extension members.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// FieldErrors is a validation failure covering one or more fields.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Rule
	}
	return strings.Join(parts, "; ")
}

// Validator wraps a validator.Validate instance. One Validator is built
// at startup and shared across requests; validator.Validate is safe for
// concurrent use once struct types have been cached, same as the
// teacher's validation package documents.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator using validator/v10's default configuration.
func New() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Struct validates v against its "validate" struct tags, returning
// FieldErrors (nil if valid).
func (vd *Validator) Struct(v any) error {
	err := vd.v.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Namespace(), Rule: fe.Tag()})
	}
	return out
}
