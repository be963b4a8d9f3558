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

package router

import "errors"

var (
	// ErrInvalidRouteTemplate indicates a path template that cannot be compiled.
	ErrInvalidRouteTemplate = errors.New("router: invalid route template")

	// ErrDuplicateRoute indicates a second registration for the same
	// template and method.
	ErrDuplicateRoute = errors.New("router: duplicate route")

	// ErrRegistryFrozen indicates a registration after the registry was frozen.
	ErrRegistryFrozen = errors.New("router: registry is frozen")

	// ErrNilHandler indicates a registration without a handler.
	ErrNilHandler = errors.New("router: nil handler")

	// ErrInvalidMethod indicates an empty or malformed HTTP method.
	ErrInvalidMethod = errors.New("router: invalid method")
)
