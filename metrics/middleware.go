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

package metrics

import (
	"context"
	"time"

	apperrors "rivaas.dev/courier/errors"
	"rivaas.dev/courier/middleware"
	"rivaas.dev/courier/protocol"
)

// Describer maps a request to its route label, as router.Registry does.
type Describer interface {
	Describe(method, path string) (label, upperMethod string)
}

// MiddlewareOption configures [Middleware].
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	filter *middleware.PathFilter
	now    func() time.Time
}

// WithPathFilter replaces the default exclusions.
func WithPathFilter(pf *middleware.PathFilter) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.filter = pf
	}
}

// Middleware records one latency observation per HTTP request: when the
// response start message goes out, or, if the application fails first,
// under the error's status (500 unless it carries one). Errors are
// returned unchanged.
func Middleware(r *Recorder, routes Describer, opts ...MiddlewareOption) middleware.Func {
	cfg := &middlewareConfig{
		filter: middleware.DefaultPathFilter(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next protocol.App) protocol.App {
		return func(ctx context.Context, scope *protocol.Scope, receive protocol.Receive, send protocol.Send) error {
			if scope.Type != protocol.ScopeHTTP || cfg.filter.Excluded(scope.Path) {
				return next(ctx, scope, receive, send)
			}

			label, method := routes.Describe(scope.Method, scope.Path)
			start := cfg.now()
			observed := false

			err := next(ctx, scope, receive, func(ctx context.Context, msg protocol.Message) error {
				if msg.Type == protocol.HTTPResponseStart && !observed {
					observed = true
					r.ObserveRequest(ctx, label, method, msg.Status, cfg.now().Sub(start))
				}
				return send(ctx, msg)
			})
			if err != nil && !observed {
				r.ObserveRequest(ctx, label, method, apperrors.StatusOf(err), cfg.now().Sub(start))
			}
			return err
		}
	}
}
