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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"

	apperrors "rivaas.dev/courier/errors"
	"rivaas.dev/courier/protocol"
)

// ChunkSize caps the body of one http.request message.
const ChunkSize = 64 << 10

// ErrNoResponse is reported when an app returns without starting a
// response.
var ErrNoResponse = errors.New("application returned without a response")

// ServeHTTP runs one request through the app.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ex := &exchange{w: w, rc: http.NewResponseController(w), body: r.Body, done: r.Context().Done()}
	scope := &protocol.Scope{
		Type:     protocol.ScopeHTTP,
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Headers:  requestHeaders(r),
	}

	err := s.call(r.Context(), scope, ex)
	if err == nil && !ex.started {
		err = ErrNoResponse
	}
	if err == nil {
		return
	}

	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		s.logger.DebugContext(r.Context(), "client went away", "method", r.Method, "path", r.URL.Path)
		return
	}
	s.logger.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	if ex.started {
		return
	}
	writeError(w, err)
}

func (s *Server) call(ctx context.Context, scope *protocol.Scope, ex *exchange) (err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if rec == http.ErrAbortHandler {
			panic(rec)
		}
		s.logger.ErrorContext(ctx, "panic in application",
			"panic", fmt.Sprint(rec),
			"stack", string(debug.Stack()),
		)
		err = fmt.Errorf("panic: %v", rec)
	}()
	return s.app(ctx, scope, ex.receive, ex.send)
}

func writeError(w http.ResponseWriter, err error) {
	resp := apperrors.Format(err)
	body, encErr := json.Marshal(resp.Body)
	if encErr != nil {
		resp.Status = http.StatusInternalServerError
		body = []byte(`{"error":"Internal Server Error"}`)
	}
	for _, h := range resp.Headers {
		w.Header().Add(h[0], h[1])
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(body)
}

// requestHeaders lowercases names and orders them by name. Host is not
// part of r.Header, so it is added first.
func requestHeaders(r *http.Request) []protocol.Header {
	headers := make([]protocol.Header, 0, len(r.Header)+1)
	if r.Host != "" {
		headers = append(headers, protocol.Header{Name: "host", Value: r.Host})
	}
	names := make([]string, 0, len(r.Header))
	for name := range r.Header {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		lower := strings.ToLower(name)
		for _, v := range r.Header[name] {
			headers = append(headers, protocol.Header{Name: lower, Value: v})
		}
	}
	return headers
}

// exchange implements receive and send for one request.
type exchange struct {
	w    http.ResponseWriter
	rc   *http.ResponseController
	body io.Reader
	done <-chan struct{}
	buf  []byte

	bodyDone bool
	started  bool
	finished bool
}

func (ex *exchange) receive(ctx context.Context) (protocol.Message, error) {
	if ex.bodyDone {
		select {
		case <-ex.done:
			return protocol.Message{Type: protocol.HTTPDisconnect}, nil
		case <-ctx.Done():
			return protocol.Message{}, ctx.Err()
		}
	}

	if ex.buf == nil {
		ex.buf = make([]byte, ChunkSize)
	}
	n, err := io.ReadFull(ex.body, ex.buf)
	switch {
	case err == nil:
		return protocol.Message{Type: protocol.HTTPRequest, Body: slices.Clone(ex.buf[:n]), MoreBody: true}, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		ex.bodyDone = true
		return protocol.Message{Type: protocol.HTTPRequest, Body: slices.Clone(ex.buf[:n])}, nil
	default:
		ex.bodyDone = true
		return protocol.Message{Type: protocol.HTTPDisconnect}, nil
	}
}

func (ex *exchange) send(_ context.Context, msg protocol.Message) error {
	switch msg.Type {
	case protocol.HTTPResponseStart:
		if ex.started {
			return fmt.Errorf("%w: response already started", protocol.ErrUnexpectedMessage)
		}
		ex.started = true
		header := ex.w.Header()
		for _, h := range msg.Headers {
			header.Add(h.Name, h.Value)
		}
		ex.w.WriteHeader(msg.Status)
		return nil

	case protocol.HTTPResponseBody:
		if !ex.started {
			return fmt.Errorf("%w: body before response start", protocol.ErrUnexpectedMessage)
		}
		if ex.finished {
			return fmt.Errorf("%w: body after the response completed", protocol.ErrUnexpectedMessage)
		}
		if len(msg.Body) > 0 {
			if _, err := ex.w.Write(msg.Body); err != nil {
				return err
			}
		}
		if !msg.MoreBody {
			ex.finished = true
			return nil
		}
		if err := ex.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
		return nil

	default:
		return fmt.Errorf("%w: %s", protocol.ErrUnexpectedMessage, msg.Type)
	}
}
