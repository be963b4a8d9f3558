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

// Package router maps (method, path) pairs to handlers.
//
// # Routing Details
//
//   - Literal routes: exact hash lookup on (path, METHOD)
//   - Template routes: segment-based matching of {name} placeholders,
//     tried in registration order; the first match wins
//   - A literal route always beats a template that also matches
//
// Each visible route adds an operation to the registry's OpenAPI document
// as it registers, so an invalid schema or a duplicate route fails at
// startup rather than at request time.
//
// # Quick Start
//
//	reg := router.New()
//	reg.MustHandle(http.MethodGet, "/quotes/{id}", func(ctx context.Context, req *router.Request) (*response.Response, error) {
//		return response.JSON(map[string]string{"id": req.Param("id")}), nil
//	}, router.WithSummary("Get a quote"))
//	reg.Freeze()
//
//	route, params, ok := reg.Resolve("GET", "/quotes/42")
package router
