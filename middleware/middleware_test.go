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
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/courier/protocol"
	"rivaas.dev/courier/protocol/protocoltest"
	"rivaas.dev/courier/response"
)

func okApp(ctx context.Context, _ *protocol.Scope, _ protocol.Receive, send protocol.Send) error {
	return response.Text([]byte(RequestIDFrom(ctx))).Send(ctx, send)
}

func tag(name string, trail *[]string) Func {
	return func(next protocol.App) protocol.App {
		return func(ctx context.Context, scope *protocol.Scope, receive protocol.Receive, send protocol.Send) error {
			*trail = append(*trail, "in:"+name)
			err := next(ctx, scope, receive, send)
			*trail = append(*trail, "out:"+name)
			return err
		}
	}
}

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var trail []string
	app := Chain(okApp, tag("outer", &trail), nil, tag("inner", &trail))

	_, err := protocoltest.Do(context.Background(), app, protocoltest.Request{Path: "/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"in:outer", "in:inner", "out:inner", "out:outer"}, trail)
}

func TestPathFilter(t *testing.T) {
	t.Parallel()

	pf, err := DefaultPathFilter().Prefixes("/debug/").Patterns(`^/v[0-9]+/internal/`)
	require.NoError(t, err)

	for path, want := range map[string]bool{
		"/metrics":           true,
		"/docs":              true,
		"/openapi.json":      true,
		"/favicon.ico":       true,
		"/debug/pprof":       true,
		"/v2/internal/stats": true,
		"/quotes":            false,
		"/metricsx":          false,
	} {
		assert.Equal(t, want, pf.Excluded(path), path)
	}

	var nilFilter *PathFilter
	assert.False(t, nilFilter.Excluded("/metrics"))

	_, err = NewPathFilter().Patterns("([")
	assert.Error(t, err)
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	uuidV7 := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

	t.Run("generated", func(t *testing.T) {
		t.Parallel()

		rec, err := protocoltest.Do(context.Background(), RequestID()(okApp), protocoltest.Request{Path: "/"})
		require.NoError(t, err)
		id := rec.Header("x-request-id")
		assert.Regexp(t, uuidV7, id)
		assert.Equal(t, id, string(rec.Body()), "handler sees the same id")
	})

	t.Run("client id reused", func(t *testing.T) {
		t.Parallel()

		req := protocoltest.Request{Path: "/", Headers: []protocol.Header{{Name: "x-request-id", Value: "abc"}}}
		rec, err := protocoltest.Do(context.Background(), RequestID()(okApp), req)
		require.NoError(t, err)
		assert.Equal(t, "abc", rec.Header("x-request-id"))
	})

	t.Run("client id ignored", func(t *testing.T) {
		t.Parallel()

		req := protocoltest.Request{Path: "/", Headers: []protocol.Header{{Name: "x-request-id", Value: "abc"}}}
		rec, err := protocoltest.Do(context.Background(), RequestID(WithAllowClientID(false), WithULID())(okApp), req)
		require.NoError(t, err)
		assert.Len(t, rec.Header("x-request-id"), 26)
	})

	t.Run("custom header and generator", func(t *testing.T) {
		t.Parallel()

		mw := RequestID(WithRequestIDHeader("X-Correlation-ID"), WithGenerator(func() string { return "fixed" }))
		rec, err := protocoltest.Do(context.Background(), mw(okApp), protocoltest.Request{Path: "/"})
		require.NoError(t, err)
		assert.Equal(t, "fixed", rec.Header("x-correlation-id"))
	})
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	panicky := func(context.Context, *protocol.Scope, protocol.Receive, protocol.Send) error {
		panic("kaboom")
	}

	t.Run("compact stack", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := Recovery(WithRecoveryLogger(slog.New(slog.NewJSONHandler(&buf, nil))), WithPrettyStack(false))

		rec, err := protocoltest.Do(context.Background(), mw(panicky), protocoltest.Request{Path: "/boom"})
		require.ErrorIs(t, err, ErrPanic)
		assert.Contains(t, err.Error(), "kaboom")
		assert.Empty(t, rec.Messages)
		assert.Contains(t, buf.String(), "panic recovered")
		assert.Contains(t, buf.String(), `"stack"`)
		assert.Contains(t, buf.String(), `"path":"/boom"`)
	})

	t.Run("no stack", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := Recovery(WithRecoveryLogger(slog.New(slog.NewJSONHandler(&buf, nil))), WithStackTrace(false))

		_, err := protocoltest.Do(context.Background(), mw(panicky), protocoltest.Request{Path: "/"})
		require.ErrorIs(t, err, ErrPanic)
		assert.Contains(t, buf.String(), "no stack trace")
		assert.NotContains(t, buf.String(), "goroutine")
	})

	t.Run("passes through", func(t *testing.T) {
		t.Parallel()

		rec, err := protocoltest.Do(context.Background(), Recovery(WithRecoveryLogger(nil))(okApp), protocoltest.Request{Path: "/"})
		require.NoError(t, err)
		assert.Equal(t, 200, rec.Status())
	})
}
