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

// Package response builds the canonical response representation: a status,
// an ordered header list and a sequence of body chunks.
//
// Every constructor appends the content type after the caller's headers, so
// the content type is always the last header and appears exactly once.
package response

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	"rivaas.dev/courier/protocol"
)

// Content types set by the constructors.
const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
	ContentTypeHTML = "text/html"
)

// Response is a fully materialized response.
type Response struct {
	Status  int
	Headers []protocol.Header
	Body    [][]byte
}

// Option configures a response constructor.
type Option func(*builder)

type builder struct {
	status  int
	headers []protocol.Header
}

// WithStatus sets the status code. The default is 200.
func WithStatus(status int) Option {
	return func(b *builder) { b.status = status }
}

// WithHeader appends a single header.
func WithHeader(name, value string) Option {
	return func(b *builder) {
		b.headers = append(b.headers, protocol.Header{Name: name, Value: value})
	}
}

// WithHeaders appends headers from a map in name order.
func WithHeaders(headers map[string]string) Option {
	return func(b *builder) {
		for _, k := range slices.Sorted(maps.Keys(headers)) {
			b.headers = append(b.headers, protocol.Header{Name: k, Value: headers[k]})
		}
	}
}

func build(contentType string, body []byte, opts []Option) *Response {
	b := builder{status: http.StatusOK}
	for _, opt := range opts {
		opt(&b)
	}

	headers := make([]protocol.Header, 0, len(b.headers)+1)
	for _, h := range b.headers {
		if strings.EqualFold(h.Name, "content-type") {
			continue
		}
		headers = append(headers, protocol.Header{Name: strings.ToLower(h.Name), Value: h.Value})
	}
	headers = append(headers, protocol.Header{Name: "content-type", Value: contentType})

	return &Response{
		Status:  b.status,
		Headers: headers,
		Body:    [][]byte{body},
	}
}

// JSON encodes data as a JSON response. Map keys are emitted in sorted
// order, so equal inputs encode identically.
//
// JSON panics if data cannot be encoded; the engine only hands it values it
// produced itself.
func JSON(data any, opts ...Option) *Response {
	body, err := json.Marshal(data)
	if err != nil {
		panic(fmt.Sprintf("response: cannot encode %T as JSON: %v", data, err))
	}
	return build(ContentTypeJSON, body, opts)
}

// Text builds a plain-text response.
func Text(data []byte, opts ...Option) *Response {
	return build(ContentTypeText, data, opts)
}

// HTML builds an HTML response.
func HTML(data []byte, opts ...Option) *Response {
	return build(ContentTypeHTML, data, opts)
}

// ContentType returns the content-type header value.
func (r *Response) ContentType() string {
	for _, h := range r.Headers {
		if h.Name == "content-type" {
			return h.Value
		}
	}
	return ""
}

// Bytes concatenates the body chunks.
func (r *Response) Bytes() []byte {
	return slices.Concat(r.Body...)
}

// Send emits the response: one start message followed by one body message
// per chunk. Only the last body message has MoreBody unset.
func (r *Response) Send(ctx context.Context, send protocol.Send) error {
	if err := send(ctx, protocol.Message{
		Type:    protocol.HTTPResponseStart,
		Status:  r.Status,
		Headers: r.Headers,
	}); err != nil {
		return err
	}

	chunks := r.Body
	if len(chunks) == 0 {
		chunks = [][]byte{nil}
	}
	for i, chunk := range chunks {
		if err := send(ctx, protocol.Message{
			Type:     protocol.HTTPResponseBody,
			Body:     chunk,
			MoreBody: i < len(chunks)-1,
		}); err != nil {
			return err
		}
	}
	return nil
}
