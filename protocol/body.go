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
	"bytes"
	"context"
	"fmt"
)

// ReadBody drains http.request messages and returns the concatenated body.
// It stops at the first message with MoreBody unset.
func ReadBody(ctx context.Context, receive Receive) ([]byte, error) {
	var buf bytes.Buffer
	for {
		msg, err := receive(ctx)
		if err != nil {
			return nil, err
		}
		switch msg.Type {
		case HTTPRequest:
			buf.Write(msg.Body)
			if !msg.MoreBody {
				return buf.Bytes(), nil
			}
		case HTTPDisconnect:
			return nil, ErrDisconnected
		default:
			return nil, fmt.Errorf("%w: %s while reading body", ErrUnexpectedMessage, msg.Type)
		}
	}
}

// StatusRecorder wraps send and remembers the status of the response start
// message. Middleware use it to observe a response without altering it.
type StatusRecorder struct {
	next    Send
	status  int
	started bool
}

// NewStatusRecorder returns a recorder forwarding to next.
func NewStatusRecorder(next Send) *StatusRecorder {
	return &StatusRecorder{next: next}
}

// Send records the status of a start message and forwards msg unchanged.
func (r *StatusRecorder) Send(ctx context.Context, msg Message) error {
	if msg.Type == HTTPResponseStart && !r.started {
		r.started = true
		r.status = msg.Status
	}
	return r.next(ctx, msg)
}

// Status reports the recorded status and whether a start message was seen.
func (r *StatusRecorder) Status() (int, bool) {
	return r.status, r.started
}
