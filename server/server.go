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

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"rivaas.dev/courier/protocol"
)

const (
	// DefaultAddr is the listen address used without [WithAddr].
	DefaultAddr = ":8001"

	// DefaultShutdownTimeout bounds draining and lifespan shutdown.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultReadHeaderTimeout bounds reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
)

// Server serves a protocol.App over HTTP/1.1.
type Server struct {
	app               protocol.App
	addr              string
	listener          net.Listener
	logger            *slog.Logger
	shutdownTimeout   time.Duration
	readHeaderTimeout time.Duration
	lifespan          bool
	onReady           []func(addr net.Addr)
}

// Option configures a [Server].
type Option func(*Server)

// WithAddr sets the TCP listen address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithListener serves on ln instead of listening on the address.
func WithListener(ln net.Listener) Option {
	return func(s *Server) {
		s.listener = ln
	}
}

// WithLogger sets the logger for transport events and unanticipated
// application errors. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// WithReadHeaderTimeout bounds reading request headers.
func WithReadHeaderTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.readHeaderTimeout = d
	}
}

// WithoutLifespan skips the lifespan scope.
func WithoutLifespan() Option {
	return func(s *Server) {
		s.lifespan = false
	}
}

// WithOnReady registers callbacks run once the listener accepts
// connections, for example to print a banner.
func WithOnReady(fns ...func(addr net.Addr)) Option {
	return func(s *Server) {
		s.onReady = append(s.onReady, fns...)
	}
}

// New creates a Server for app.
func New(app protocol.App, opts ...Option) *Server {
	s := &Server{
		app:               app,
		addr:              DefaultAddr,
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		shutdownTimeout:   DefaultShutdownTimeout,
		readHeaderTimeout: DefaultReadHeaderTimeout,
		lifespan:          true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run completes lifespan startup, serves until ctx is cancelled, then
// drains in-flight requests and completes lifespan shutdown, each bounded
// by the shutdown timeout. A failed startup is returned without listening.
func (s *Server) Run(ctx context.Context) error {
	var ls *lifespan
	if s.lifespan {
		var err error
		if ls, err = startLifespan(ctx, s.app); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "application startup complete")
	}

	err := s.serve(ctx)

	if ls != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		if lsErr := ls.shutdown(shutdownCtx); lsErr != nil {
			err = errors.Join(err, lsErr)
		} else {
			s.logger.InfoContext(ctx, "application shutdown complete")
		}
	}
	return err
}

func (s *Server) serve(ctx context.Context) error {
	ln := s.listener
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", s.addr); err != nil {
			return fmt.Errorf("listening on %s: %w", s.addr, err)
		}
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: s.readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.InfoContext(ctx, "server listening", "address", ln.Addr().String())
		for _, fn := range s.onReady {
			fn(ln.Addr())
		}
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.InfoContext(ctx, "server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	})
	return g.Wait()
}
