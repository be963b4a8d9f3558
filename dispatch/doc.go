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

// Package dispatch is the top-level protocol application.
//
// A [Dispatcher] handles the lifespan scope (startup hooks in order,
// shutdown hooks in reverse, then termination) and HTTP scopes (route
// resolution, the built-in documentation routes, and 404 for everything
// else).
//
// The only error converted into a response is an application error from
// package errors. Any other handler error is returned to the transport,
// which answers 500.
package dispatch
