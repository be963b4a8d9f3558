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
	"cmp"
	"errors"
	"fmt"
	"net/http"
	"slices"

	apperrors "rivaas.dev/courier/errors"
)

var (
	// ErrValidation marks every error produced by this package.
	ErrValidation = errors.New("validation")

	// ErrSchemaCompile indicates a schema could not be compiled.
	ErrSchemaCompile = errors.New("validation: schema compile failed")
)

// FieldError describes one failed constraint.
type FieldError struct {
	Field     string `json:"field"`
	Message   string `json:"message"`
	Validator string `json:"validator"`
}

// Detail is the payload of a 422 response.
type Detail struct {
	Details []FieldError `json:"details"`
	Body    any          `json:"body"`
}

// Failed builds the 422 application error for the given field errors and the
// offending body.
func Failed(fields []FieldError, body any) *apperrors.Error {
	slices.SortStableFunc(fields, func(a, b FieldError) int {
		return cmp.Or(cmp.Compare(a.Field, b.Field), cmp.Compare(a.Validator, b.Validator))
	})
	return apperrors.New(http.StatusUnprocessableEntity, Detail{Details: fields, Body: body}).
		WithCause(fmt.Errorf("%w: %d field error(s)", ErrValidation, len(fields)))
}

// Fields extracts the field errors from a 422 produced by this package.
func Fields(err error) ([]FieldError, bool) {
	appErr, ok := apperrors.From(err)
	if !ok {
		return nil, false
	}
	d, ok := appErr.Details().(Detail)
	if !ok {
		return nil, false
	}
	return d.Details, true
}
