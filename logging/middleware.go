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

package logging

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	apperrors "rivaas.dev/courier/errors"
	"rivaas.dev/courier/middleware"
	"rivaas.dev/courier/protocol"
)

// MiddlewareOption configures [Middleware].
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	filter *middleware.PathFilter
	now    func() time.Time
}

// WithPathFilter skips logging for the paths pf excludes. Every request is
// logged by default.
func WithPathFilter(pf *middleware.PathFilter) MiddlewareOption {
	return func(c *middlewareConfig) { c.filter = pf }
}

// Middleware logs start_process when an HTTP request arrives and
// finish_process, with status_code and time_process in seconds, when the
// application returns. The status is taken from the response start
// message; if none was sent and the application failed, from the error.
func Middleware(logger *slog.Logger, opts ...MiddlewareOption) middleware.Func {
	cfg := &middlewareConfig{now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next protocol.App) protocol.App {
		return func(ctx context.Context, scope *protocol.Scope, receive protocol.Receive, send protocol.Send) error {
			if scope.Type != protocol.ScopeHTTP || cfg.filter.Excluded(scope.Path) {
				return next(ctx, scope, receive, send)
			}

			start := cfg.now()
			logger.InfoContext(ctx, "start_process", "method", scope.Method, "path", scope.Path)

			rec := protocol.NewStatusRecorder(send)
			err := next(ctx, scope, receive, rec.Send)

			status, sent := rec.Status()
			if !sent {
				status = http.StatusOK
				if err != nil {
					status = apperrors.StatusOf(err)
				}
			}
			attrs := []any{
				"method", scope.Method,
				"path", scope.Path,
				"status_code", status,
				"time_process", cfg.now().Sub(start).Seconds(),
			}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}
			logger.InfoContext(ctx, "finish_process", attrs...)
			return err
		}
	}
}
