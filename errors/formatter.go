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

package errors

import "net/http"

// Response represents a formatted error response.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// Body is the JSON payload.
	Body any

	// Headers are extra response headers, sorted by name.
	Headers [][2]string
}

// Format converts any error into response components.
//
// Application errors keep their status, body and headers. Errors declaring
// an HTTP status via [ErrorType] get that status with its standard phrase.
// Everything else is a 500 whose body is the status phrase; the error text
// is never exposed.
func Format(err error) Response {
	if e, ok := From(err); ok {
		return Response{Status: e.HTTPStatus(), Body: e.Body(), Headers: e.Headers()}
	}
	status := StatusOf(err)
	if http.StatusText(status) == "" {
		status = http.StatusInternalServerError
	}
	return Response{
		Status: status,
		Body:   map[string]string{"error": http.StatusText(status)},
	}
}
