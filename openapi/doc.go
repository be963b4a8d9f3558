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

// Package openapi synthesizes an OpenAPI 3.1 contract from route metadata.
//
// Schemas are described with explicit [Schema] values instead of reflection:
//
//	quote := openapi.Object("Quote",
//		openapi.Field("id", openapi.String()),
//		openapi.Field("company", openapi.String()),
//		openapi.Field("final_quote", openapi.Number()),
//	)
//
// A [Document] collects operations as routes register:
//
//	doc := openapi.NewDocument(openapi.Info{Title: "Quotes", Version: "1.0.0"})
//	err := doc.AddOperation(openapi.OperationSpec{
//		Method:   "GET",
//		Path:     "/quotes/{id}",
//		Summary:  "Get a quote",
//		Response: quote,
//	})
//
// Every operation gets the same error responses (400, 404, 422, 500) backed
// by fixed shared components, so clients can rely on one error shape.
//
// Schemas are normalized to JSON Schema 2020-12 once per *Schema. Named
// nested schemas are hoisted into components.schemas and their references
// rewritten; a second schema with the same name must have the same shape.
package openapi
