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

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Name  string `validate:"required"`
	Price int    `validate:"gte=0"`
}

func TestStructValidPasses(t *testing.T) {
	t.Parallel()

	v := New()
	err := v.Struct(widget{Name: "bolt", Price: 5})
	assert.NoError(t, err)
}

func TestStructInvalidReturnsFieldErrors(t *testing.T) {
	t.Parallel()

	v := New()
	err := v.Struct(widget{Name: "", Price: -1})
	require.Error(t, err)

	fe, ok := err.(FieldErrors)
	require.True(t, ok)
	require.Len(t, fe, 2)
	assert.Contains(t, err.Error(), "required")
}
