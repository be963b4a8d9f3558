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

package tracing

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "rivaas.dev/courier/errors"
	"rivaas.dev/courier/middleware"
	"rivaas.dev/courier/protocol"
)

const (
	attrRoute      = attribute.Key("http.route")
	attrMethod     = attribute.Key("http.request.method")
	attrStatusCode = attribute.Key("http.response.status_code")
	attrURLPath    = attribute.Key("url.path")
	attrURLQuery   = attribute.Key("url.query")

	attrPrefixHeader = "http.request.header."
)

// sensitiveHeaders are never recorded, even when asked for.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
}

// Describer maps a request to its route label, as router.Registry does.
type Describer interface {
	Describe(method, path string) (label, upperMethod string)
}

// MiddlewareOption configures [Middleware].
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	filter  *middleware.PathFilter
	headers []string
}

// WithPathFilter replaces the default exclusions.
func WithPathFilter(pf *middleware.PathFilter) MiddlewareOption {
	return func(c *middlewareConfig) { c.filter = pf }
}

// WithHeaders records the named request headers as
// http.request.header.<name>. Credential headers are dropped.
func WithHeaders(names ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		for _, n := range names {
			if !sensitiveHeaders[strings.ToLower(n)] {
				c.headers = append(c.headers, strings.ToLower(n))
			}
		}
	}
}

// Middleware opens a server span named "{METHOD} {route}" for every HTTP
// request, continuing any W3C trace context in the request headers. The
// span carries the route label, method and final status; 5xx statuses mark
// it as an error. An application error returned before any response
// started also gets its own "error.<status>" span, as [ErrorObserver] gives
// the errors the dispatcher catches. The wrapped application sees the span
// in its context.
func Middleware(t *Tracer, routes Describer, opts ...MiddlewareOption) middleware.Func {
	cfg := &middlewareConfig{filter: middleware.DefaultPathFilter()}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next protocol.App) protocol.App {
		return func(ctx context.Context, scope *protocol.Scope, receive protocol.Receive, send protocol.Send) error {
			if scope.Type != protocol.ScopeHTTP || cfg.filter.Excluded(scope.Path) {
				return next(ctx, scope, receive, send)
			}

			label, method := routes.Describe(scope.Method, scope.Path)
			attrs := []attribute.KeyValue{
				attrRoute.String(label),
				attrMethod.String(method),
				attrURLPath.String(scope.Path),
			}
			if scope.RawQuery != "" {
				attrs = append(attrs, attrURLQuery.String(scope.RawQuery))
			}
			for _, name := range cfg.headers {
				if v := scope.Header(name); v != "" {
					attrs = append(attrs, attribute.String(attrPrefixHeader+name, v))
				}
			}

			ctx, span := t.tracer.Start(t.Extract(ctx, scope), method+" "+label,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			rec := protocol.NewStatusRecorder(send)
			err := next(ctx, scope, receive, rec.Send)

			status, sent := rec.Status()
			if !sent {
				status = http.StatusOK
				if err != nil {
					status = apperrors.StatusOf(err)
				}
				// Application errors raised outside the dispatcher, such as
				// timeouts, never reach its observers.
				if appErr, ok := apperrors.From(err); ok {
					t.recordAppError(ctx, appErr)
				}
			}
			span.SetAttributes(attrStatusCode.Int(status))
			if err != nil {
				span.RecordError(err)
			}
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			return err
		}
	}
}
