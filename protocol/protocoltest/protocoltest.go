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

// Package protocoltest provides in-memory transports for exercising a
// [protocol.App] in tests.
package protocoltest

import (
	"context"
	"encoding/json"
	"sync"

	"rivaas.dev/courier/protocol"
)

// Request describes a request to feed into an app.
type Request struct {
	Method  string
	Path    string
	Query   string
	Headers []protocol.Header
	// Chunks is the request body split into http.request messages.
	// A nil slice sends one empty message.
	Chunks [][]byte
}

// Recorder captures the messages an app sends.
type Recorder struct {
	mu       sync.Mutex
	Messages []protocol.Message
}

// Send appends msg.
func (r *Recorder) Send(_ context.Context, msg protocol.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, msg)
	return nil
}

// Status returns the status of the first response start message, or 0.
func (r *Recorder) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.Messages {
		if m.Type == protocol.HTTPResponseStart {
			return m.Status
		}
	}
	return 0
}

// Headers returns the headers of the response start message.
func (r *Recorder) Headers() []protocol.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.Messages {
		if m.Type == protocol.HTTPResponseStart {
			return m.Headers
		}
	}
	return nil
}

// Header returns the first response header value with the given name.
func (r *Recorder) Header(name string) string {
	for _, h := range r.Headers() {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

// Body concatenates all response body chunks.
func (r *Recorder) Body() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []byte
	for _, m := range r.Messages {
		if m.Type == protocol.HTTPResponseBody {
			out = append(out, m.Body...)
		}
	}
	return out
}

// JSON decodes the response body into v.
func (r *Recorder) JSON(v any) error {
	return json.Unmarshal(r.Body(), v)
}

// Types lists the types of all captured messages in order.
func (r *Recorder) Types() []protocol.MessageType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]protocol.MessageType, len(r.Messages))
	for i, m := range r.Messages {
		types[i] = m.Type
	}
	return types
}

// Receiver returns a receive function yielding the request chunks followed by
// http.disconnect once the body is exhausted.
func (req Request) Receiver() protocol.Receive {
	chunks := req.Chunks
	if len(chunks) == 0 {
		chunks = [][]byte{nil}
	}
	var mu sync.Mutex
	i := 0
	return func(ctx context.Context) (protocol.Message, error) {
		if err := ctx.Err(); err != nil {
			return protocol.Message{}, err
		}
		mu.Lock()
		defer mu.Unlock()
		if i >= len(chunks) {
			return protocol.Message{Type: protocol.HTTPDisconnect}, nil
		}
		msg := protocol.Message{
			Type:     protocol.HTTPRequest,
			Body:     chunks[i],
			MoreBody: i < len(chunks)-1,
		}
		i++
		return msg, nil
	}
}

// Scope builds the HTTP scope for the request.
func (req Request) Scope() *protocol.Scope {
	method := req.Method
	if method == "" {
		method = "GET"
	}
	return &protocol.Scope{
		Type:     protocol.ScopeHTTP,
		Method:   method,
		Path:     req.Path,
		RawQuery: req.Query,
		Headers:  req.Headers,
	}
}

// Do runs app for req and returns the recorded response together with the
// error the app returned.
func Do(ctx context.Context, app protocol.App, req Request) (*Recorder, error) {
	rec := &Recorder{}
	err := app(ctx, req.Scope(), req.Receiver(), rec.Send)
	return rec, err
}

// Lifespan drives a lifespan scope. Messages are delivered in order; the
// returned recorder holds the app's replies.
func Lifespan(ctx context.Context, app protocol.App, messages ...protocol.MessageType) (*Recorder, error) {
	rec := &Recorder{}
	var mu sync.Mutex
	i := 0
	receive := func(ctx context.Context) (protocol.Message, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(messages) {
			<-ctx.Done()
			return protocol.Message{}, ctx.Err()
		}
		msg := protocol.Message{Type: messages[i]}
		i++
		return msg, nil
	}
	err := app(ctx, &protocol.Scope{Type: protocol.ScopeLifespan}, receive, rec.Send)
	return rec, err
}
