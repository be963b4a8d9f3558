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
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/term"

	"rivaas.dev/courier/protocol"
)

// ErrPanic wraps a recovered panic value.
var ErrPanic = errors.New("panic recovered")

// RecoveryOption configures [Recovery].
type RecoveryOption func(*recoveryConfig)

type recoveryConfig struct {
	logger      *slog.Logger
	stackTrace  bool
	stackSize   int
	prettyStack *bool
	stderr      io.Writer
}

// WithRecoveryLogger sets the logger for recovered panics. Nil disables
// logging.
func WithRecoveryLogger(logger *slog.Logger) RecoveryOption {
	return func(cfg *recoveryConfig) {
		cfg.logger = logger
	}
}

// WithStackTrace enables or disables stack capture. Default: true.
func WithStackTrace(enabled bool) RecoveryOption {
	return func(cfg *recoveryConfig) {
		cfg.stackTrace = enabled
	}
}

// WithStackSize caps the logged stack in bytes. Default: 4KB.
func WithStackSize(size int) RecoveryOption {
	return func(cfg *recoveryConfig) {
		cfg.stackSize = size
	}
}

// WithPrettyStack forces pretty (true) or compact (false) stacks. By default
// stacks are printed to stderr when it is a terminal and logged compactly
// otherwise.
func WithPrettyStack(enabled bool) RecoveryOption {
	return func(cfg *recoveryConfig) {
		cfg.prettyStack = &enabled
	}
}

// Recovery turns a panic in the wrapped application into an error wrapping
// [ErrPanic]. The transport answers it with a 500. The active span is marked
// with the exception.
func Recovery(opts ...RecoveryOption) Func {
	cfg := &recoveryConfig{
		logger:     slog.Default(),
		stackTrace: true,
		stackSize:  4 << 10,
		stderr:     os.Stderr,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	pretty := cfg.prettyStack != nil && *cfg.prettyStack
	if cfg.prettyStack == nil {
		pretty = term.IsTerminal(int(os.Stderr.Fd()))
	}

	return func(next protocol.App) protocol.App {
		return func(ctx context.Context, scope *protocol.Scope, receive protocol.Receive, send protocol.Send) (err error) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				err = fmt.Errorf("%w: %v", ErrPanic, rec)
				cfg.report(ctx, scope, rec, pretty)
			}()
			return next(ctx, scope, receive, send)
		}
	}
}

func (cfg *recoveryConfig) report(ctx context.Context, scope *protocol.Scope, rec any, pretty bool) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Bool("exception.escaped", true),
		attribute.String("exception.type", fmt.Sprintf("%T", rec)),
		attribute.String("exception.message", fmt.Sprint(rec)),
	)
	span.SetStatus(codes.Error, "panic")

	if cfg.logger == nil {
		return
	}
	attrs := []any{
		"panic", fmt.Sprint(rec),
		"method", scope.Method,
		"path", scope.Path,
	}
	if !cfg.stackTrace {
		cfg.logger.ErrorContext(ctx, "panic recovered (no stack trace)", attrs...)
		return
	}

	stack := debug.Stack()
	if cfg.stackSize > 0 && len(stack) > cfg.stackSize {
		stack = stack[:cfg.stackSize]
	}
	if pretty {
		cfg.logger.ErrorContext(ctx, "panic recovered", attrs...)
		fmt.Fprintf(cfg.stderr, "Stack trace:\n%s\n", stack)
		return
	}
	cfg.logger.ErrorContext(ctx, "panic recovered", append(attrs, "stack", string(stack))...)
}
