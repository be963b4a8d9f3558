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
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"rivaas.dev/courier/openapi"
	"rivaas.dev/courier/protocol"
	"rivaas.dev/courier/response"
	"rivaas.dev/courier/validation"
)

// Handler serves one matched request.
type Handler func(ctx context.Context, req *Request) (*response.Response, error)

type routeKey struct {
	path   string
	method string
}

// Registry maps (method, path) pairs to handlers.
//
// Literal templates are stored in a hash map and looked up first. Templates
// with placeholders are tried in registration order per method, so the
// first registered template that matches wins.
//
// Registration is not meant to race with lookups: register everything,
// call [Registry.Freeze], then serve.
type Registry struct {
	mu      sync.Mutex
	frozen  atomic.Bool
	exact   map[routeKey]*Route
	dynamic map[string][]*Route
	routes  []*Route

	contract  *openapi.Document
	validator *validation.Validator
}

// Option configures a [Registry].
type Option func(*Registry)

// WithContract sets the document that receives an operation per visible route.
func WithContract(doc *openapi.Document) Option {
	return func(r *Registry) {
		r.contract = doc
	}
}

// WithValidator sets the validator used for request bodies. By default the
// registry builds one over the contract's normalizer.
func WithValidator(v *validation.Validator) Option {
	return func(r *Registry) {
		r.validator = v
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		exact:   make(map[routeKey]*Route),
		dynamic: make(map[string][]*Route),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.contract == nil {
		r.contract = openapi.NewDocument(openapi.Info{Title: "Courier"})
	}
	if r.validator == nil {
		r.validator = validation.New(r.contract.Normalizer())
	}
	return r
}

// Contract returns the document built from the registered routes.
func (r *Registry) Contract() *openapi.Document { return r.contract }

// Validator returns the request body validator.
func (r *Registry) Validator() *validation.Validator { return r.validator }

// Freeze makes the registry read-only. Later registrations fail with
// [ErrRegistryFrozen].
func (r *Registry) Freeze() { r.frozen.Store(true) }

// Frozen reports whether [Registry.Freeze] was called.
func (r *Registry) Frozen() bool { return r.frozen.Load() }

// Handle registers h for method and template. The method is case-insensitive.
//
// Registration fails without side effects when the template is invalid, the
// pair is already taken, a request schema does not compile, or the contract
// rejects the operation.
func (r *Registry) Handle(method, template string, h Handler, opts ...RouteOption) error {
	if h == nil {
		return ErrNilHandler
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" || strings.ContainsAny(method, " /\t") {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}

	matcher, err := Compile(template)
	if err != nil {
		return err
	}

	route := &Route{
		Method:   method,
		Template: template,
		handler:  h,
		matcher:  matcher,
	}
	for _, opt := range opts {
		opt(route)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return ErrRegistryFrozen
	}

	key := routeKey{path: template, method: method}
	if _, taken := r.exact[key]; taken || r.hasDynamic(key) {
		return fmt.Errorf("%w: %s %s", ErrDuplicateRoute, method, template)
	}

	if route.Request != nil {
		if err := r.validator.Compile(route.Request); err != nil {
			return fmt.Errorf("%s %s: %w", method, template, err)
		}
	}
	if !route.Hidden {
		if err := r.contract.AddOperation(route.operation()); err != nil {
			return err
		}
	}

	if matcher.IsStatic() {
		r.exact[key] = route
	} else {
		r.dynamic[method] = append(r.dynamic[method], route)
	}
	r.routes = append(r.routes, route)
	return nil
}

func (r *Registry) hasDynamic(key routeKey) bool {
	for _, rt := range r.dynamic[key.method] {
		if rt.Template == key.path {
			return true
		}
	}
	return false
}

// MustHandle is like [Registry.Handle] but panics on error.
func (r *Registry) MustHandle(method, template string, h Handler, opts ...RouteOption) {
	if err := r.Handle(method, template, h, opts...); err != nil {
		panic(err)
	}
}

// GET registers a GET route.
func (r *Registry) GET(template string, h Handler, opts ...RouteOption) error {
	return r.Handle(http.MethodGet, template, h, opts...)
}

// POST registers a POST route.
func (r *Registry) POST(template string, h Handler, opts ...RouteOption) error {
	return r.Handle(http.MethodPost, template, h, opts...)
}

// PUT registers a PUT route.
func (r *Registry) PUT(template string, h Handler, opts ...RouteOption) error {
	return r.Handle(http.MethodPut, template, h, opts...)
}

// PATCH registers a PATCH route.
func (r *Registry) PATCH(template string, h Handler, opts ...RouteOption) error {
	return r.Handle(http.MethodPatch, template, h, opts...)
}

// DELETE registers a DELETE route.
func (r *Registry) DELETE(template string, h Handler, opts ...RouteOption) error {
	return r.Handle(http.MethodDelete, template, h, opts...)
}

// Resolve finds the route for method and path. Literal routes are checked
// first; templates follow in registration order.
func (r *Registry) Resolve(method, path string) (*Route, protocol.Params, bool) {
	method = strings.ToUpper(method)
	if route, ok := r.exact[routeKey{path: path, method: method}]; ok {
		return route, nil, true
	}
	for _, route := range r.dynamic[method] {
		if params, ok := route.matcher.Match(path); ok {
			return route, params, true
		}
	}
	return nil, nil, false
}

// Describe returns the label used for observability: the template of the
// matching route, or the raw path when nothing matches. Placeholder values
// never appear in a label.
func (r *Registry) Describe(method, path string) (label, upperMethod string) {
	upperMethod = strings.ToUpper(method)
	if route, _, ok := r.Resolve(upperMethod, path); ok {
		return route.Template, upperMethod
	}
	return path, upperMethod
}

// RouteInfo describes a registered route.
type RouteInfo struct {
	Method   string
	Template string
	Summary  string
	Tags     []string
	Hidden   bool
	Static   bool
}

// Routes lists the registered routes in registration order.
func (r *Registry) Routes() []RouteInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RouteInfo, 0, len(r.routes))
	for _, rt := range r.routes {
		out = append(out, RouteInfo{
			Method:   rt.Method,
			Template: rt.Template,
			Summary:  rt.Summary,
			Tags:     rt.Tags,
			Hidden:   rt.Hidden,
			Static:   rt.matcher.IsStatic(),
		})
	}
	return out
}
