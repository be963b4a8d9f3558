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

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"rivaas.dev/courier/cache"
	"rivaas.dev/courier/config"
	"rivaas.dev/courier/dispatch"
	"rivaas.dev/courier/internal/quote"
	"rivaas.dev/courier/internal/store"
	"rivaas.dev/courier/logging"
	"rivaas.dev/courier/metrics"
	"rivaas.dev/courier/middleware"
	"rivaas.dev/courier/protocol"
	"rivaas.dev/courier/router"
	"rivaas.dev/courier/server"
	"rivaas.dev/courier/tracing"
)

// quotesCollection names the quote documents in the shared table.
const quotesCollection = "quotes"

// App is an assembled service.
type App struct {
	settings *config.Settings

	logger  *logging.Logger
	tracer  *tracing.Tracer
	metrics *metrics.Recorder

	cache     cache.Store
	cacheKind string
	pool      *pgxpool.Pool

	registry   *router.Registry
	dispatcher *dispatch.Dispatcher
	handler    protocol.App

	bannerOut  io.Writer
	serverOpts []server.Option

	closeOnce sync.Once
	closeErr  error
	closers   []func(context.Context) error
}

// Option configures [New].
type Option func(*options)

type options struct {
	bannerOut  io.Writer
	logOutput  io.Writer
	cache      cache.Store
	repo       store.Repository[quote.Quote]
	routes     []func(*router.Registry) error
	serverOpts []server.Option
}

// WithBannerOutput sets where the startup banner goes. Defaults to stdout.
func WithBannerOutput(w io.Writer) Option {
	return func(o *options) {
		o.bannerOut = w
	}
}

// WithLogOutput sets where logs go. Defaults to stdout.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) {
		o.logOutput = w
	}
}

// WithCache replaces the store built from redis_url.
func WithCache(s cache.Store) Option {
	return func(o *options) {
		o.cache = s
	}
}

// WithRepository replaces the repository built from database_url.
func WithRepository(repo store.Repository[quote.Quote]) Option {
	return func(o *options) {
		o.repo = repo
	}
}

// WithRoutes registers extra routes next to the quote service.
func WithRoutes(fns ...func(*router.Registry) error) Option {
	return func(o *options) {
		o.routes = append(o.routes, fns...)
	}
}

// WithServerOptions passes options to the server built by [App.Run].
// They apply after the ones derived from settings.
func WithServerOptions(opts ...server.Option) Option {
	return func(o *options) {
		o.serverOpts = append(o.serverOpts, opts...)
	}
}

// New builds the service described by s. Whatever was already built is
// released when a later step fails.
func New(ctx context.Context, s *config.Settings, opts ...Option) (_ *App, err error) {
	if s == nil {
		return nil, errors.New("settings cannot be nil")
	}
	o := &options{bannerOut: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{settings: s, bannerOut: o.bannerOut, serverOpts: o.serverOpts}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
		}
	}()

	if err = a.initObservability(ctx, o.logOutput); err != nil {
		return nil, err
	}
	repo, err := a.initStorage(ctx, o)
	if err != nil {
		return nil, err
	}

	svcOpts := []quote.Option{
		quote.WithCache(a.cache, s.CacheTTL),
		quote.WithLogger(a.logger.Logger()),
	}
	if a.metrics != nil {
		svcOpts = append(svcOpts, quote.WithCounter(a.metrics))
	}

	a.registry = router.New()
	regErrs := []error{quote.Register(a.registry, quote.NewService(repo, svcOpts...))}
	if a.metrics != nil {
		regErrs = append(regErrs, a.metrics.Register(a.registry))
	}
	for _, fn := range o.routes {
		regErrs = append(regErrs, fn(a.registry))
	}
	if err = errors.Join(regErrs...); err != nil {
		return nil, fmt.Errorf("registering routes: %w", err)
	}

	dispatchOpts := []dispatch.Option{
		dispatch.WithDocs(s.EnableSwagger),
		dispatch.WithDocsTitle(s.AppName),
		dispatch.WithLogger(a.logger.Logger()),
		dispatch.WithOnStartup(a.startup),
		dispatch.WithOnShutdown(a.Close),
	}
	if a.tracer != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithErrorObserver(tracing.ErrorObserver(a.tracer)))
	}
	if a.dispatcher, err = dispatch.New(a.registry, dispatchOpts...); err != nil {
		return nil, fmt.Errorf("creating dispatcher: %w", err)
	}

	a.handler = middleware.Chain(a.dispatcher.Serve, a.middleware()...)
	return a, nil
}

// MustNew is [New] that panics on error.
func MustNew(ctx context.Context, s *config.Settings, opts ...Option) *App {
	a, err := New(ctx, s, opts...)
	if err != nil {
		panic(fmt.Sprintf("app: %v", err))
	}
	return a
}

func (a *App) middleware() []middleware.Func {
	var mws []middleware.Func
	if a.tracer != nil {
		mws = append(mws, tracing.Middleware(a.tracer, a.registry))
	}
	if a.metrics != nil {
		mws = append(mws, metrics.Middleware(a.metrics, a.registry))
	}
	mws = append(mws, middleware.RequestID())
	if a.settings.EnableLogger {
		mws = append(mws, logging.Middleware(a.logger.Logger()))
	}
	if a.settings.SecurityHeaders {
		mws = append(mws, middleware.SecurityHeaders())
	}
	mws = append(mws,
		middleware.Timeout(a.settings.RequestTimeout, middleware.WithTimeoutLogger(a.logger.Logger())),
		middleware.BodyLimit(a.settings.MaxBodyBytes),
	)
	mws = append(mws, middleware.Recovery(
		middleware.WithRecoveryLogger(a.logger.Logger()),
		middleware.WithPrettyStack(a.settings.Environment == config.EnvironmentDevelopment),
	))
	return mws
}

// startup checks the cache backend. An unreachable cache only slows reads
// down, so it is reported and startup goes on.
func (a *App) startup(ctx context.Context) error {
	if p, ok := a.cache.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			a.logger.Logger().WarnContext(ctx, "cache unreachable, serving without it", "error", err)
		}
	}
	return nil
}

// Serve is the assembled application.
func (a *App) Serve(ctx context.Context, scope *protocol.Scope, receive protocol.Receive, send protocol.Send) error {
	return a.handler(ctx, scope, receive, send)
}

// Registry returns the route registry.
func (a *App) Registry() *router.Registry { return a.registry }

// Settings returns the settings the app was built from.
func (a *App) Settings() *config.Settings { return a.settings }

// Logger returns the application logger.
func (a *App) Logger() *logging.Logger { return a.logger }

// Run serves on the configured address until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	opts := []server.Option{
		server.WithAddr(a.settings.Addr()),
		server.WithLogger(a.logger.Logger()),
		server.WithShutdownTimeout(a.settings.ShutdownTimeout),
	}
	if a.settings.Banner {
		opts = append(opts, server.WithOnReady(func(addr net.Addr) {
			a.PrintBanner(a.bannerOut, addr.String())
		}))
	}
	opts = append(opts, a.serverOpts...)
	return server.New(a.Serve, opts...).Run(ctx)
}

// Close releases what New built, last built first. It is safe to call
// more than once and runs on lifespan shutdown.
func (a *App) Close(ctx context.Context) error {
	a.closeOnce.Do(func() {
		var errs []error
		for i := len(a.closers) - 1; i >= 0; i-- {
			if err := a.closers[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}
