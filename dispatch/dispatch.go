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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	apperrors "rivaas.dev/courier/errors"
	"rivaas.dev/courier/openapi"
	"rivaas.dev/courier/protocol"
	"rivaas.dev/courier/response"
	"rivaas.dev/courier/router"
)

// Built-in documentation routes.
const (
	ContractPath = "/openapi.json"
	DocsPath     = "/docs"
)

var (
	// ErrTerminated is returned for any scope after lifespan shutdown.
	ErrTerminated = errors.New("dispatch: application terminated")

	// ErrNoResponse indicates a handler that returned neither a response
	// nor an error.
	ErrNoResponse = errors.New("dispatch: handler returned no response")

	// ErrUnsupportedScope indicates a scope type other than lifespan or http.
	ErrUnsupportedScope = errors.New("dispatch: unsupported scope type")
)

type state int32

const (
	stateAwaiting state = iota
	stateStarting
	stateStopping
	stateTerminated
)

func (s state) String() string {
	switch s {
	case stateAwaiting:
		return "awaiting"
	case stateStarting:
		return "starting"
	case stateStopping:
		return "stopping"
	case stateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Dispatcher is the application entry point driven by the transport.
type Dispatcher struct {
	registry *router.Registry
	logger   *slog.Logger

	docs      bool
	docsTitle string
	contract  []byte
	docsPage  []byte

	onStartup  []Hook
	onShutdown []Hook
	observers  []ErrorObserver

	state atomic.Int32
}

// New freezes reg and builds a dispatcher over it. When docs are enabled
// the contract and documentation page are rendered once, here.
func New(reg *router.Registry, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		registry:  reg,
		logger:    slog.New(slog.DiscardHandler),
		docsTitle: "API documentation",
	}
	for _, opt := range opts {
		opt(d)
	}

	reg.Freeze()

	if d.docs {
		contract, err := reg.Contract().JSON()
		if err != nil {
			return nil, fmt.Errorf("dispatch: render contract: %w", err)
		}
		page, err := openapi.SwaggerUI(openapi.UIConfig{Title: d.docsTitle, SpecURL: ContractPath})
		if err != nil {
			return nil, fmt.Errorf("dispatch: render docs page: %w", err)
		}
		d.contract = contract
		d.docsPage = page
	}
	return d, nil
}

// Registry returns the frozen route registry.
func (d *Dispatcher) Registry() *router.Registry { return d.registry }

// Terminated reports whether lifespan shutdown completed.
func (d *Dispatcher) Terminated() bool {
	return state(d.state.Load()) == stateTerminated
}

// Serve implements [protocol.App].
func (d *Dispatcher) Serve(ctx context.Context, scope *protocol.Scope, receive protocol.Receive, send protocol.Send) error {
	if d.Terminated() {
		return ErrTerminated
	}
	switch scope.Type {
	case protocol.ScopeLifespan:
		return d.lifespan(ctx, receive, send)
	case protocol.ScopeHTTP:
		return d.serveHTTP(ctx, scope, receive, send)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedScope, scope.Type)
	}
}

func (d *Dispatcher) lifespan(ctx context.Context, receive protocol.Receive, send protocol.Send) error {
	for {
		msg, err := receive(ctx)
		if err != nil {
			return err
		}

		switch msg.Type {
		case protocol.LifespanStartup:
			d.state.Store(int32(stateStarting))
			if err := d.startup(ctx); err != nil {
				d.logger.ErrorContext(ctx, "startup failed", "error", err)
				if sendErr := send(ctx, protocol.Message{Type: protocol.LifespanStartupFailed, Message: err.Error()}); sendErr != nil {
					return errors.Join(err, sendErr)
				}
				return err
			}
			d.state.Store(int32(stateAwaiting))
			if err := send(ctx, protocol.Message{Type: protocol.LifespanStartupComplete}); err != nil {
				return err
			}

		case protocol.LifespanShutdown:
			d.state.Store(int32(stateStopping))
			err := d.shutdown(ctx)
			d.state.Store(int32(stateTerminated))
			if err != nil {
				d.logger.ErrorContext(ctx, "shutdown failed", "error", err)
				return errors.Join(err, send(ctx, protocol.Message{Type: protocol.LifespanShutdownFailed, Message: err.Error()}))
			}
			return send(ctx, protocol.Message{Type: protocol.LifespanShutdownComplete})

		default:
			return fmt.Errorf("%w: %q during lifespan (%s)", protocol.ErrUnexpectedMessage, msg.Type, state(d.state.Load()))
		}
	}
}

func (d *Dispatcher) startup(ctx context.Context) error {
	for i, hook := range d.onStartup {
		if err := hook(ctx); err != nil {
			return fmt.Errorf("startup hook %d: %w", i, err)
		}
	}
	return nil
}

func (d *Dispatcher) shutdown(ctx context.Context) error {
	var errs []error
	for i := len(d.onShutdown) - 1; i >= 0; i-- {
		if err := d.onShutdown[i](ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown hook %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) serveHTTP(ctx context.Context, scope *protocol.Scope, receive protocol.Receive, send protocol.Send) error {
	method := strings.ToUpper(scope.Method)
	route, params, ok := d.registry.Resolve(method, scope.Path)
	if !ok {
		return d.fallback(ctx, method, scope.Path, send)
	}

	matched := *scope
	matched.PathParams = params
	req := d.registry.NewRequest(&matched, route, receive)

	resp, err := route.Serve(ctx, req)
	if err != nil {
		appErr, ok := apperrors.From(err)
		if !ok {
			return err
		}
		d.caught(ctx, &matched, appErr)
		resp = errorResponse(appErr)
	}
	if resp == nil {
		return fmt.Errorf("%w: %s %s", ErrNoResponse, route.Method, route.Template)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return resp.Send(ctx, send)
}

func (d *Dispatcher) fallback(ctx context.Context, method, path string, send protocol.Send) error {
	var resp *response.Response
	switch {
	case d.docs && method == http.MethodGet && path == ContractPath:
		resp = response.JSON(json.RawMessage(d.contract))
	case d.docs && method == http.MethodGet && path == DocsPath:
		resp = response.HTML(d.docsPage)
	default:
		resp = response.JSON(map[string]string{"error": "Not found"}, response.WithStatus(http.StatusNotFound))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return resp.Send(ctx, send)
}

func (d *Dispatcher) caught(ctx context.Context, scope *protocol.Scope, err *apperrors.Error) {
	d.logger.ErrorContext(ctx, "application error",
		"method", scope.Method,
		"path", scope.Path,
		"status_code", err.HTTPStatus(),
		"error", err.Error(),
	)
	for _, observe := range d.observers {
		observe(ctx, scope, err)
	}
}

func errorResponse(err *apperrors.Error) *response.Response {
	opts := []response.Option{response.WithStatus(err.HTTPStatus())}
	for _, h := range err.Headers() {
		opts = append(opts, response.WithHeader(h[0], h[1]))
	}
	return response.JSON(err.Body(), opts...)
}
