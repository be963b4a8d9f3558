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
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rivaas.dev/courier/errors"
	"rivaas.dev/courier/protocol"
	"rivaas.dev/courier/protocol/protocoltest"
	"rivaas.dev/courier/response"
)

func echoBody(ctx context.Context, _ *protocol.Scope, receive protocol.Receive, send protocol.Send) error {
	body, err := protocol.ReadBody(ctx, receive)
	if err != nil {
		return err
	}
	return response.Text(body).Send(ctx, send)
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		limit   int64
		req     protocoltest.Request
		wantErr int
	}{
		{name: "under limit", limit: 8, req: protocoltest.Request{Chunks: [][]byte{[]byte("1234"), []byte("5678")}}},
		{name: "crossing in a later chunk", limit: 5, req: protocoltest.Request{Chunks: [][]byte{[]byte("1234"), []byte("5678")}}, wantErr: http.StatusRequestEntityTooLarge},
		{
			name:    "declared length",
			limit:   5,
			req:     protocoltest.Request{Headers: []protocol.Header{{Name: "content-length", Value: "100"}}},
			wantErr: http.StatusRequestEntityTooLarge,
		},
		{name: "disabled", limit: 0, req: protocoltest.Request{Chunks: [][]byte{bytes.Repeat([]byte("x"), 64)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tt.req.Method = http.MethodPost
			rec, err := protocoltest.Do(context.Background(), BodyLimit(tt.limit)(echoBody), tt.req)
			if tt.wantErr == 0 {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Status())
				return
			}
			assert.Equal(t, tt.wantErr, apperrors.StatusOf(err))
			assert.Empty(t, rec.Types())
		})
	}
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	slow := func(ctx context.Context, _ *protocol.Scope, _ protocol.Receive, send protocol.Send) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return response.Text(nil).Send(ctx, send)
		}
	}
	startedThenSlow := func(ctx context.Context, _ *protocol.Scope, _ protocol.Receive, send protocol.Send) error {
		if err := send(ctx, protocol.Message{Type: protocol.HTTPResponseStart, Status: http.StatusOK}); err != nil {
			return err
		}
		<-ctx.Done()
		return ctx.Err()
	}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	_, err := protocoltest.Do(context.Background(), Timeout(20*time.Millisecond, WithTimeoutLogger(logger))(slow), protocoltest.Request{Path: "/slow"})
	assert.Equal(t, http.StatusRequestTimeout, apperrors.StatusOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, logs.String(), "request timed out")

	_, err = protocoltest.Do(context.Background(), Timeout(20*time.Millisecond, WithTimeoutLogger(nil))(startedThenSlow), protocoltest.Request{Path: "/stream"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	_, isAppErr := apperrors.From(err)
	assert.False(t, isAppErr)

	rec, err := protocoltest.Do(context.Background(), Timeout(time.Second)(okApp), protocoltest.Request{Path: "/"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Status())

	skip := Timeout(time.Nanosecond, WithTimeoutPathFilter(NewPathFilter().Paths("/fast")))(okApp)
	_, err = protocoltest.Do(context.Background(), skip, protocoltest.Request{Path: "/fast"})
	assert.NoError(t, err)
}

func TestTimeoutLeavesCallerCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	app := func(ctx context.Context, _ *protocol.Scope, _ protocol.Receive, _ protocol.Send) error {
		return ctx.Err()
	}
	_, err := protocoltest.Do(ctx, Timeout(time.Second)(app), protocoltest.Request{Path: "/"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	withCSP := func(ctx context.Context, _ *protocol.Scope, _ protocol.Receive, send protocol.Send) error {
		return response.Text(nil, response.WithHeader("Content-Security-Policy", "none")).Send(ctx, send)
	}

	tests := []struct {
		name    string
		app     protocol.App
		opts    []SecurityOption
		req     protocoltest.Request
		want    map[string]string
		missing []string
	}{
		{
			name: "defaults",
			app:  okApp,
			req:  protocoltest.Request{Path: "/quotes"},
			want: map[string]string{
				"x-frame-options":         "DENY",
				"x-content-type-options":  "nosniff",
				"content-security-policy": "default-src 'self'",
				"referrer-policy":         "strict-origin-when-cross-origin",
			},
			missing: []string{"strict-transport-security"},
		},
		{
			name: "hsts behind https proxy",
			app:  okApp,
			opts: []SecurityOption{WithHSTS(60, false, true)},
			req:  protocoltest.Request{Path: "/", Headers: []protocol.Header{{Name: "x-forwarded-proto", Value: "https"}}},
			want: map[string]string{"strict-transport-security": "max-age=60; preload"},
		},
		{
			name: "application header wins",
			app:  withCSP,
			req:  protocoltest.Request{Path: "/"},
			want: map[string]string{"content-security-policy": "none"},
		},
		{
			name:    "options override and remove",
			app:     okApp,
			opts:    []SecurityOption{WithFrameOptions("SAMEORIGIN"), WithReferrerPolicy(""), WithSecurityHeader("X-Extra", "1")},
			req:     protocoltest.Request{Path: "/"},
			want:    map[string]string{"x-frame-options": "SAMEORIGIN", "x-extra": "1"},
			missing: []string{"referrer-policy"},
		},
		{
			name:    "docs are skipped",
			app:     okApp,
			req:     protocoltest.Request{Path: "/docs"},
			missing: []string{"x-frame-options", "content-security-policy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, err := protocoltest.Do(context.Background(), SecurityHeaders(tt.opts...)(tt.app), tt.req)
			require.NoError(t, err)
			for name, value := range tt.want {
				assert.Equal(t, value, rec.Header(name), name)
			}
			for _, name := range tt.missing {
				assert.Empty(t, rec.Header(name), name)
			}
		})
	}
}
