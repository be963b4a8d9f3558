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

	"rivaas.dev/courier/openapi"
	"rivaas.dev/courier/response"
)

// Route is a registered handler with its documentation metadata.
type Route struct {
	Method   string
	Template string

	Summary     string
	Description string
	OperationID string
	Tags        []string
	Deprecated  bool
	Hidden      bool
	Params      []openapi.Parameter
	Request     *openapi.Schema
	Response    *openapi.Schema

	handler Handler
	matcher *Matcher
}

// Serve calls the route handler.
func (rt *Route) Serve(ctx context.Context, req *Request) (*response.Response, error) {
	return rt.handler(ctx, req)
}

// Matcher returns the compiled template.
func (rt *Route) Matcher() *Matcher { return rt.matcher }

func (rt *Route) operation() openapi.OperationSpec {
	return openapi.OperationSpec{
		Method:      rt.Method,
		Path:        rt.Template,
		Summary:     rt.Summary,
		Description: rt.Description,
		OperationID: rt.OperationID,
		Tags:        rt.Tags,
		Deprecated:  rt.Deprecated,
		Parameters:  rt.Params,
		Request:     rt.Request,
		Response:    rt.Response,
	}
}

// RouteOption configures a route at registration.
type RouteOption func(*Route)

// WithSummary sets the operation summary.
func WithSummary(s string) RouteOption {
	return func(rt *Route) { rt.Summary = s }
}

// WithDescription sets the operation description.
func WithDescription(s string) RouteOption {
	return func(rt *Route) { rt.Description = s }
}

// WithTags appends operation tags.
func WithTags(tags ...string) RouteOption {
	return func(rt *Route) { rt.Tags = append(rt.Tags, tags...) }
}

// WithOperationID overrides the generated operation id.
func WithOperationID(id string) RouteOption {
	return func(rt *Route) { rt.OperationID = id }
}

// WithParams declares path, query, header or cookie parameters. Path
// placeholders left undeclared are documented as required strings.
func WithParams(params ...openapi.Parameter) RouteOption {
	return func(rt *Route) { rt.Params = append(rt.Params, params...) }
}

// WithRequestSchema sets the JSON body schema. Bodies are validated against
// it by [Request.Bind].
func WithRequestSchema(s *openapi.Schema) RouteOption {
	return func(rt *Route) { rt.Request = s }
}

// WithResponseSchema sets the schema of the 200 response.
func WithResponseSchema(s *openapi.Schema) RouteOption {
	return func(rt *Route) { rt.Response = s }
}

// WithDeprecated marks the operation deprecated.
func WithDeprecated() RouteOption {
	return func(rt *Route) { rt.Deprecated = true }
}

// WithHidden keeps the route out of the contract.
func WithHidden() RouteOption {
	return func(rt *Route) { rt.Hidden = true }
}
