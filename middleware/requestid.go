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
	"crypto/rand"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"rivaas.dev/courier/protocol"
)

type requestIDKey struct{}

// RequestIDOption configures [RequestID].
type RequestIDOption func(*requestIDConfig)

type requestIDConfig struct {
	header        string
	generator     func() string
	allowClientID bool
}

// WithRequestIDHeader sets the header carrying the id. Default: X-Request-ID.
func WithRequestIDHeader(name string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		cfg.header = name
	}
}

// WithULID generates ULIDs instead of UUID v7.
func WithULID() RequestIDOption {
	return func(cfg *requestIDConfig) {
		cfg.generator = generateULID
	}
}

// WithGenerator sets a custom id generator.
func WithGenerator(fn func() string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		cfg.generator = fn
	}
}

// WithAllowClientID controls whether an incoming id header is reused.
// Default: true.
func WithAllowClientID(allow bool) RequestIDOption {
	return func(cfg *requestIDConfig) {
		cfg.allowClientID = allow
	}
}

func generateUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

var (
	ulidEntropy     = ulid.Monotonic(rand.Reader, 0)
	ulidEntropyLock sync.Mutex
)

func generateULID() string {
	ulidEntropyLock.Lock()
	defer ulidEntropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// RequestID tags every HTTP request with an id. The id is stored in the
// context (see [RequestIDFrom]) and echoed on the response start message.
// Other scopes pass through untouched.
func RequestID(opts ...RequestIDOption) Func {
	cfg := &requestIDConfig{
		header:        "X-Request-ID",
		generator:     generateUUIDv7,
		allowClientID: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	lower := strings.ToLower(cfg.header)

	return func(next protocol.App) protocol.App {
		return func(ctx context.Context, scope *protocol.Scope, receive protocol.Receive, send protocol.Send) error {
			if scope.Type != protocol.ScopeHTTP {
				return next(ctx, scope, receive, send)
			}

			var id string
			if cfg.allowClientID {
				id = scope.Header(cfg.header)
			}
			if id == "" {
				id = cfg.generator()
			}

			ctx = context.WithValue(ctx, requestIDKey{}, id)
			return next(ctx, scope, receive, func(ctx context.Context, msg protocol.Message) error {
				if msg.Type == protocol.HTTPResponseStart {
					msg.Headers = append(slices.Clip(msg.Headers), protocol.Header{Name: lower, Value: id})
				}
				return send(ctx, msg)
			})
		}
	}
}

// RequestIDFrom returns the request id stored by [RequestID], or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
