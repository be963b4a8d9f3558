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

import (
	"context"
	"net/url"

	"github.com/go-viper/mapstructure/v2"

	"rivaas.dev/courier/protocol"
	"rivaas.dev/courier/validation"
)

// Request is the handler's view of one HTTP exchange.
//
// The body is read from the receive channel on first use and kept.
type Request struct {
	Scope *protocol.Scope
	Route *Route

	receive   protocol.Receive
	validator *validation.Validator

	query    url.Values
	body     []byte
	bodyErr  error
	bodyRead bool
}

// NewRequest binds a scope to its matched route.
func (r *Registry) NewRequest(scope *protocol.Scope, route *Route, receive protocol.Receive) *Request {
	return &Request{
		Scope:     scope,
		Route:     route,
		receive:   receive,
		validator: r.validator,
	}
}

// Method returns the upper-case request method.
func (req *Request) Method() string { return req.Scope.Method }

// Path returns the request path.
func (req *Request) Path() string { return req.Scope.Path }

// Param returns a captured path parameter, or "" when absent.
func (req *Request) Param(name string) string {
	v, _ := req.Scope.PathParams.Get(name)
	return v
}

// Params returns all captured path parameters.
func (req *Request) Params() protocol.Params { return req.Scope.PathParams }

// Header returns the first header with the given name, compared
// case-insensitively.
func (req *Request) Header(name string) string { return req.Scope.Header(name) }

// QueryValues returns the parsed query string. Malformed pairs are dropped.
func (req *Request) QueryValues() url.Values {
	if req.query == nil {
		req.query, _ = url.ParseQuery(req.Scope.RawQuery)
		if req.query == nil {
			req.query = url.Values{}
		}
	}
	return req.query
}

// Query returns the first value of a query parameter.
func (req *Request) Query(name string) string {
	return req.QueryValues().Get(name)
}

// Body reads the whole request body.
func (req *Request) Body(ctx context.Context) ([]byte, error) {
	if !req.bodyRead {
		req.body, req.bodyErr = protocol.ReadBody(ctx, req.receive)
		req.bodyRead = true
	}
	return req.body, req.bodyErr
}

// Bind reads the body, validates it against the route's request schema and
// decodes it into dst. Validation failures are 422 application errors.
func (req *Request) Bind(ctx context.Context, dst any) error {
	body, err := req.Body(ctx)
	if err != nil {
		return err
	}
	return req.validator.Bind(req.Route.Request, body, dst)
}

// BindQuery decodes the query string into the `query`-tagged fields of dst
// and checks its `validate` tags. Fields missing from the query keep their
// current values, so callers preset defaults.
func (req *Request) BindQuery(dst any) error {
	values := req.QueryValues()
	input := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			input[k] = vs[0]
		} else {
			input[k] = vs
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		TagName:          "query",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return validation.Failed([]validation.FieldError{{
			Field:     "query",
			Message:   err.Error(),
			Validator: "type",
		}}, req.Scope.RawQuery)
	}
	return validation.Struct(dst)
}
