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

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apperrors "rivaas.dev/courier/errors"
	"rivaas.dev/courier/protocol"
)

// TimeoutOption configures [Timeout].
type TimeoutOption func(*timeoutConfig)

type timeoutConfig struct {
	logger *slog.Logger
	filter *PathFilter
}

// WithTimeoutLogger sets the logger for timeout warnings. Nil disables them.
func WithTimeoutLogger(logger *slog.Logger) TimeoutOption {
	return func(cfg *timeoutConfig) {
		cfg.logger = logger
	}
}

// WithTimeoutPathFilter exempts the filtered paths from the deadline.
func WithTimeoutPathFilter(pf *PathFilter) TimeoutOption {
	return func(cfg *timeoutConfig) {
		cfg.filter = pf
	}
}

// Timeout puts a deadline of d on each HTTP request's context. When the
// application gives up on that deadline before starting its response, the
// request fails with a 408 that the transport answers. Handlers honor the
// deadline by watching ctx.Done(). A zero d disables the deadline.
func Timeout(d time.Duration, opts ...TimeoutOption) Func {
	cfg := &timeoutConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next protocol.App) protocol.App {
		if d <= 0 {
			return next
		}
		return func(ctx context.Context, scope *protocol.Scope, receive protocol.Receive, send protocol.Send) error {
			if scope.Type != protocol.ScopeHTTP || cfg.filter.Excluded(scope.Path) {
				return next(ctx, scope, receive, send)
			}

			tctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			started := false
			err := next(tctx, scope, receive, func(ctx context.Context, msg protocol.Message) error {
				if msg.Type == protocol.HTTPResponseStart {
					started = true
				}
				return send(ctx, msg)
			})

			expired := errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
			if !expired || started || (err != nil && !errors.Is(err, context.DeadlineExceeded)) {
				return err
			}
			if cfg.logger != nil {
				cfg.logger.WarnContext(ctx, "request timed out",
					"method", scope.Method, "path", scope.Path, "timeout", d.String())
			}
			return apperrors.New(http.StatusRequestTimeout, "Request Timeout").WithCause(err)
		}
	}
}
