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

package tracing

import (
	"context"
	"strings"

	"rivaas.dev/courier/protocol"
)

// HeaderCarrier adapts an ordered header list to propagation.TextMapCarrier.
type HeaderCarrier struct {
	Headers *[]protocol.Header
}

// Get returns the first value of key, compared case-insensitively.
func (c HeaderCarrier) Get(key string) string {
	for _, h := range *c.Headers {
		if strings.EqualFold(h.Name, key) {
			return h.Value
		}
	}
	return ""
}

// Set replaces every value of key with value; names are stored lowercase.
func (c HeaderCarrier) Set(key, value string) {
	kept := (*c.Headers)[:0]
	for _, h := range *c.Headers {
		if !strings.EqualFold(h.Name, key) {
			kept = append(kept, h)
		}
	}
	*c.Headers = append(kept, protocol.Header{Name: strings.ToLower(key), Value: value})
}

// Keys lists the header names in order.
func (c HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.Headers))
	for _, h := range *c.Headers {
		keys = append(keys, h.Name)
	}
	return keys
}

// Extract returns ctx with the remote span context found in scope's headers.
func (t *Tracer) Extract(ctx context.Context, scope *protocol.Scope) context.Context {
	headers := scope.Headers
	return t.propagator.Extract(ctx, HeaderCarrier{Headers: &headers})
}

// Inject writes the span context of ctx into headers.
func (t *Tracer) Inject(ctx context.Context, headers *[]protocol.Header) {
	t.propagator.Inject(ctx, HeaderCarrier{Headers: headers})
}
