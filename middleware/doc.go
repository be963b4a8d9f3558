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

// Package middleware composes protocol applications.
//
// A middleware wraps both the invocation and the outbound send function of
// the application it decorates. The deployment order used by package app is
//
//	tracing → metrics → request id → logging → security headers →
//	timeout → body limit → recovery → dispatcher
//
// Recovery sits innermost, so a panic reaches tracing and metrics as an
// ordinary error and the transport answers it with a 500. Timeout and body
// limit failures are application errors answered the same way.
//
// The metrics, logging and tracing middlewares live in their own packages
// and share [PathFilter] for excluding infrastructure routes.
package middleware
