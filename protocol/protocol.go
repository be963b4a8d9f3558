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

package protocol

import (
	"context"
	"errors"
	"strings"
)

// ScopeType identifies the kind of connection a [Scope] describes.
type ScopeType string

const (
	// ScopeLifespan carries process startup and shutdown messages.
	ScopeLifespan ScopeType = "lifespan"
	// ScopeHTTP carries a single HTTP request/response exchange.
	ScopeHTTP ScopeType = "http"
)

// MessageType identifies a protocol message.
type MessageType string

const (
	LifespanStartup          MessageType = "lifespan.startup"
	LifespanStartupComplete  MessageType = "lifespan.startup.complete"
	LifespanStartupFailed    MessageType = "lifespan.startup.failed"
	LifespanShutdown         MessageType = "lifespan.shutdown"
	LifespanShutdownComplete MessageType = "lifespan.shutdown.complete"
	LifespanShutdownFailed   MessageType = "lifespan.shutdown.failed"

	HTTPRequest       MessageType = "http.request"
	HTTPDisconnect    MessageType = "http.disconnect"
	HTTPResponseStart MessageType = "http.response.start"
	HTTPResponseBody  MessageType = "http.response.body"
)

var (
	// ErrDisconnected is returned by [ReadBody] when the client went away
	// before the request body was complete.
	ErrDisconnected = errors.New("client disconnected")

	// ErrUnexpectedMessage is returned when a message arrives that is not
	// valid in the current exchange.
	ErrUnexpectedMessage = errors.New("unexpected protocol message")
)

// Header is a single header entry. Header lists are ordered and may contain
// repeated names.
type Header struct {
	Name  string
	Value string
}

// Param is a captured path parameter.
type Param struct {
	Key   string
	Value string
}

// Params holds captured path parameters in template order.
type Params []Param

// Get returns the value of the named parameter.
func (ps Params) Get(name string) (string, bool) {
	for _, p := range ps {
		if p.Key == name {
			return p.Value, true
		}
	}
	return "", false
}

// Map copies the parameters into a map.
func (ps Params) Map() map[string]string {
	m := make(map[string]string, len(ps))
	for _, p := range ps {
		m[p.Key] = p.Value
	}
	return m
}

// Scope describes one connection handed to an [App]. A scope is owned by the
// invocation it was passed to and is never shared between requests.
type Scope struct {
	Type       ScopeType
	Method     string
	Path       string
	RawQuery   string
	Headers    []Header
	PathParams Params
}

// Header returns the first header value with the given name, compared
// case-insensitively.
func (s *Scope) Header(name string) string {
	for _, h := range s.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Message is a single protocol message. Only the fields relevant to Type are
// populated.
type Message struct {
	Type     MessageType
	Status   int
	Headers  []Header
	Body     []byte
	MoreBody bool
	// Message carries a human-readable reason on *.failed lifespan messages.
	Message string
}

// Receive waits for the next inbound message.
type Receive func(ctx context.Context) (Message, error)

// Send emits an outbound message.
type Send func(ctx context.Context, msg Message) error

// App is the callable every layer of the engine speaks: the dispatcher,
// every middleware and the transport bridge.
type App func(ctx context.Context, scope *Scope, receive Receive, send Send) error
