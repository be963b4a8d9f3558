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

	"rivaas.dev/courier/protocol"
)

var (
	// ErrStartupFailed is returned by Run when the app reports
	// lifespan.startup.failed or exits during startup.
	ErrStartupFailed = errors.New("lifespan startup failed")

	// ErrShutdownFailed is returned by Run when the app reports
	// lifespan.shutdown.failed or exits without completing shutdown.
	ErrShutdownFailed = errors.New("lifespan shutdown failed")
)

// lifespan runs the app's lifespan scope in its own goroutine for the
// lifetime of the server.
type lifespan struct {
	inbox  chan protocol.Message
	outbox chan protocol.Message
	done   chan error
}

func startLifespan(ctx context.Context, app protocol.App) (*lifespan, error) {
	l := &lifespan{
		inbox:  make(chan protocol.Message, 1),
		outbox: make(chan protocol.Message, 1),
		done:   make(chan error, 1),
	}
	go func() {
		l.done <- app(context.WithoutCancel(ctx), &protocol.Scope{Type: protocol.ScopeLifespan}, l.receive, l.send)
	}()

	l.inbox <- protocol.Message{Type: protocol.LifespanStartup}
	select {
	case msg := <-l.outbox:
		switch msg.Type {
		case protocol.LifespanStartupComplete:
			return l, nil
		case protocol.LifespanStartupFailed:
			return nil, fmt.Errorf("%w: %s", ErrStartupFailed, msg.Message)
		default:
			return nil, fmt.Errorf("%w: %w: %s", ErrStartupFailed, protocol.ErrUnexpectedMessage, msg.Type)
		}
	case err := <-l.done:
		if err == nil {
			err = errors.New("application exited")
		}
		return nil, fmt.Errorf("%w: %w", ErrStartupFailed, err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *lifespan) shutdown(ctx context.Context) error {
	l.inbox <- protocol.Message{Type: protocol.LifespanShutdown}
	for {
		select {
		case msg := <-l.outbox:
			switch msg.Type {
			case protocol.LifespanShutdownComplete:
				continue
			case protocol.LifespanShutdownFailed:
				return fmt.Errorf("%w: %s", ErrShutdownFailed, msg.Message)
			default:
				return fmt.Errorf("%w: %w: %s", ErrShutdownFailed, protocol.ErrUnexpectedMessage, msg.Type)
			}
		case err := <-l.done:
			if err != nil {
				return fmt.Errorf("%w: %w", ErrShutdownFailed, err)
			}
			return nil
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrShutdownFailed, ctx.Err())
		}
	}
}

func (l *lifespan) receive(ctx context.Context) (protocol.Message, error) {
	select {
	case msg := <-l.inbox:
		return msg, nil
	case <-ctx.Done():
		return protocol.Message{}, ctx.Err()
	}
}

func (l *lifespan) send(ctx context.Context, msg protocol.Message) error {
	select {
	case l.outbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
