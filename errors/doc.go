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

// Package errors defines the application error understood by the dispatcher.
//
// An [*Error] carries a detail payload (a string or any JSON-encodable
// value), an HTTP status and optional response headers. Handlers return it
// to terminate the request with a well-formed JSON response:
//
//	func getQuote(ctx context.Context, req *router.Request) (*response.Response, error) {
//		q, err := svc.Get(ctx, req.Param("id"))
//		if errors.Is(err, store.ErrNotFound) {
//			return nil, apperrors.New(http.StatusNotFound, "Resource not found")
//		}
//		...
//	}
//
// The dispatcher converts the error with [Error.Body]: string details become
// {"error": detail}, structured details are written verbatim.
//
// Any other error is not converted by the dispatcher. [Format] renders those
// at the transport boundary as a generic response that never leaks the
// underlying message.
package errors
