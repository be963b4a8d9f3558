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

package openapi

import "errors"

// Schema errors
var (
	// ErrSchemaConflict indicates two different schemas share a component name.
	ErrSchemaConflict = errors.New("openapi: conflicting schema definitions")

	// ErrUnresolvedRef indicates a reference to a schema that is not defined.
	ErrUnresolvedRef = errors.New("openapi: unresolved schema reference")

	// ErrUnnamedCycle indicates a schema refers back to itself without a name
	// to hoist it under.
	ErrUnnamedCycle = errors.New("openapi: recursive schema must be named")
)

// Operation errors
var (
	// ErrDuplicateOperation indicates two operations for the same path and method.
	ErrDuplicateOperation = errors.New("openapi: duplicate operation")

	// ErrDuplicateOperationID indicates two operations have the same ID.
	ErrDuplicateOperationID = errors.New("openapi: duplicate operation ID")

	// ErrInvalidParameter indicates a malformed parameter declaration.
	ErrInvalidParameter = errors.New("openapi: invalid parameter")
)
