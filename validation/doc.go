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

// Package validation turns request validation failures into 422 application
// errors.
//
// Bodies are checked against [openapi.Schema] descriptors with JSON Schema
// 2020-12; query and header structs are checked with `validate` struct tags.
// Both report the same shape:
//
//	{
//	  "details": [{"field": "value", "message": "must be > 0", "validator": "exclusiveMinimum"}],
//	  "body": {"company": "acme", "value": 0}
//	}
package validation
