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

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
)

// DefaultStatus is used when an error is created with status 0.
const DefaultStatus = http.StatusBadRequest

// ErrorType allows errors to declare their own HTTP status code.
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorDetails allows errors to expose a structured payload.
type ErrorDetails interface {
	error
	Details() any
}

// Error is the application error. It terminates a handler and is converted
// into a JSON response by the dispatcher.
//
// Error values are not safe for concurrent mutation; build them fully before
// returning them.
type Error struct {
	detail  any
	status  int
	headers map[string]string
	cause   error
}

// New creates an application error. A zero status becomes [DefaultStatus];
// a nil detail becomes the standard phrase of the status.
func New(status int, detail any) *Error {
	if status == 0 {
		status = DefaultStatus
	}
	if detail == nil {
		detail = http.StatusText(status)
	}
	return &Error{detail: detail, status: status}
}

// Newf creates an application error with a formatted string detail.
func Newf(status int, format string, args ...any) *Error {
	return New(status, fmt.Sprintf(format, args...))
}

// Wrap creates an application error whose detail is the status phrase and
// whose cause is err. The cause is kept for logs and [errors.Unwrap] only;
// it never reaches the response body.
func Wrap(err error, status int) *Error {
	e := New(status, nil)
	e.cause = err
	return e
}

// WithHeader adds a response header and returns e.
func (e *Error) WithHeader(name, value string) *Error {
	if e.headers == nil {
		e.headers = make(map[string]string)
	}
	e.headers[name] = value
	return e
}

// WithHeaders merges headers into e and returns e.
func (e *Error) WithHeaders(headers map[string]string) *Error {
	for k, v := range headers {
		e.WithHeader(k, v)
	}
	return e
}

// WithCause records the underlying error and returns e.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// Error renders "<status>: <detail>".
func (e *Error) Error() string {
	switch d := e.detail.(type) {
	case string:
		return fmt.Sprintf("%d: %s", e.status, d)
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return fmt.Sprintf("%d: %v", e.status, d)
		}
		return fmt.Sprintf("%d: %s", e.status, b)
	}
}

// HTTPStatus returns the response status.
func (e *Error) HTTPStatus() int { return e.status }

// Details returns the detail payload.
func (e *Error) Details() any { return e.detail }

// Headers returns the response headers sorted by name.
func (e *Error) Headers() [][2]string {
	out := make([][2]string, 0, len(e.headers))
	for _, k := range slices.Sorted(maps.Keys(e.headers)) {
		out = append(out, [2]string{k, e.headers[k]})
	}
	return out
}

// Body returns the JSON payload for the response. String details are wrapped
// as {"error": detail}; anything else is returned as is.
func (e *Error) Body() any {
	if s, ok := e.detail.(string); ok {
		return map[string]string{"error": s}
	}
	return e.detail
}

// Unwrap returns the cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// From extracts an application error from err's chain.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusOf returns the HTTP status an error maps to: the status of an
// [ErrorType] in the chain, otherwise 500.
func StatusOf(err error) int {
	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}
	return http.StatusInternalServerError
}
