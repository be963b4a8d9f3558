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

package dispatch

import (
	"context"
	"log/slog"

	apperrors "rivaas.dev/courier/errors"
	"rivaas.dev/courier/protocol"
)

// Hook is a lifespan callback, such as opening a database pool.
type Hook func(ctx context.Context) error

// ErrorObserver is notified of every application error caught at the
// dispatch boundary, before the error response is sent.
type ErrorObserver func(ctx context.Context, scope *protocol.Scope, err *apperrors.Error)

// Option configures a [Dispatcher].
type Option func(*Dispatcher)

// WithDocs serves GET /openapi.json and GET /docs when enabled.
func WithDocs(enabled bool) Option {
	return func(d *Dispatcher) {
		d.docs = enabled
	}
}

// WithDocsTitle sets the title of the documentation page.
func WithDocsTitle(title string) Option {
	return func(d *Dispatcher) {
		d.docsTitle = title
	}
}

// WithLogger sets the logger for caught application errors and lifespan
// events. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithOnStartup appends startup hooks. They run in order; the first
// failure aborts startup.
func WithOnStartup(hooks ...Hook) Option {
	return func(d *Dispatcher) {
		d.onStartup = append(d.onStartup, hooks...)
	}
}

// WithOnShutdown appends shutdown hooks. They run in reverse order and all
// of them run even when one fails.
func WithOnShutdown(hooks ...Hook) Option {
	return func(d *Dispatcher) {
		d.onShutdown = append(d.onShutdown, hooks...)
	}
}

// WithErrorObserver appends observers for caught application errors.
func WithErrorObserver(observers ...ErrorObserver) Option {
	return func(d *Dispatcher) {
		d.observers = append(d.observers, observers...)
	}
}
