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

package metrics

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rivaas.dev/courier/errors"
	"rivaas.dev/courier/middleware"
	"rivaas.dev/courier/protocol"
	"rivaas.dev/courier/protocol/protocoltest"
	"rivaas.dev/courier/response"
	"rivaas.dev/courier/router"
)

type staticRoutes map[string]string

func (s staticRoutes) Describe(method, path string) (string, string) {
	if label, ok := s[path]; ok {
		return label, method
	}
	return path, method
}

func respondWith(status int) protocol.App {
	return func(ctx context.Context, _ *protocol.Scope, _ protocol.Receive, send protocol.Send) error {
		return response.JSON("ok", response.WithStatus(status)).Send(ctx, send)
	}
}

func failWith(err error) protocol.App {
	return func(context.Context, *protocol.Scope, protocol.Receive, protocol.Send) error {
		return err
	}
}

func TestMiddlewareObservesOncePerRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		app        protocol.App
		path       string
		wantStatus string
		wantErr    bool
	}{
		{name: "response start", app: respondWith(http.StatusCreated), path: "/quotes/7", wantStatus: "201"},
		{name: "application error", app: failWith(apperrors.New(http.StatusInternalServerError, "boom")), path: "/quotes/7", wantStatus: "500", wantErr: true},
		{name: "teapot error", app: failWith(apperrors.New(http.StatusTeapot, "short")), path: "/quotes/7", wantStatus: "418", wantErr: true},
		{name: "plain error", app: failWith(errors.New("db down")), path: "/quotes/7", wantStatus: "500", wantErr: true},
		{name: "unmatched path keeps raw label", app: respondWith(http.StatusNotFound), path: "/nope", wantStatus: "404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, reader := TestingRecorder(t)
			app := Middleware(rec, staticRoutes{"/quotes/7": "/quotes/{id}"})(tt.app)

			_, err := protocoltest.Do(context.Background(), app, protocoltest.Request{Method: "GET", Path: tt.path})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			obs := CollectDurations(t, reader)
			require.Len(t, obs, 1)
			assert.Equal(t, uint64(1), obs[0].Count)

			wantLabel := tt.path
			if tt.path == "/quotes/7" {
				wantLabel = "/quotes/{id}"
			}
			assert.Equal(t, map[string]string{"path": wantLabel, "method": "GET", "status_code": tt.wantStatus}, obs[0].Attributes)
		})
	}
}

func TestMiddlewareReturnsErrorUnchanged(t *testing.T) {
	t.Parallel()

	boom := apperrors.New(http.StatusInternalServerError, "boom")
	rec, _ := TestingRecorder(t)
	_, err := protocoltest.Do(context.Background(), Middleware(rec, staticRoutes{})(failWith(boom)), protocoltest.Request{Path: "/x"})
	assert.Same(t, boom, err)
}

func TestMiddlewareSkipsExcludedPaths(t *testing.T) {
	t.Parallel()

	rec, reader := TestingRecorder(t)
	app := Middleware(rec, staticRoutes{})(respondWith(http.StatusOK))

	for _, path := range middleware.DefaultExcludedPaths {
		_, err := protocoltest.Do(context.Background(), app, protocoltest.Request{Path: path})
		require.NoError(t, err)
	}
	assert.Empty(t, CollectDurations(t, reader))

	custom := Middleware(rec, staticRoutes{}, WithPathFilter(middleware.NewPathFilter().Prefixes("/internal/")))(respondWith(http.StatusOK))
	_, err := protocoltest.Do(context.Background(), custom, protocoltest.Request{Path: "/metrics"})
	require.NoError(t, err)
	assert.Len(t, CollectDurations(t, reader), 1)
}

func TestPrometheusExposition(t *testing.T) {
	t.Parallel()

	rec, err := New(WithServiceName("exposition"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Shutdown(context.Background()) })

	reg := router.New()
	require.NoError(t, rec.Register(reg))
	require.NoError(t, reg.GET("/quotes/{id}", func(context.Context, *router.Request) (*response.Response, error) {
		return response.JSON("ok"), nil
	}))

	app := Middleware(rec, reg)(func(ctx context.Context, scope *protocol.Scope, receive protocol.Receive, send protocol.Send) error {
		route, params, ok := reg.Resolve(scope.Method, scope.Path)
		require.True(t, ok)
		s := *scope
		s.PathParams = params
		resp, err := route.Serve(ctx, reg.NewRequest(&s, route, receive))
		if err != nil {
			return err
		}
		return resp.Send(ctx, send)
	})

	_, err = protocoltest.Do(context.Background(), app, protocoltest.Request{Path: "/quotes/42"})
	require.NoError(t, err)

	scrape, err := protocoltest.Do(context.Background(), app, protocoltest.Request{Path: ExpositionPath})
	require.NoError(t, err)
	body := string(scrape.Body())
	assert.Contains(t, body, "http_request_duration_seconds_bucket")
	assert.Contains(t, body, `path="/quotes/{id}"`)
	assert.Contains(t, body, `status_code="200"`)
	assert.NotContains(t, body, `path="/metrics"`)

	_, documented := reg.Contract().Operation(http.MethodGet, ExpositionPath)
	assert.False(t, documented)
}

func TestWriteTextNeedsPrometheus(t *testing.T) {
	t.Parallel()

	rec, _ := TestingRecorder(t)
	assert.ErrorIs(t, rec.WriteText(&bytes.Buffer{}), ErrNoExposition)
	assert.NoError(t, rec.Register(router.New()))
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(WithStdout(), WithPrometheus())
	assert.ErrorContains(t, err, "conflicting provider options")

	_, err = New(WithServiceName(""))
	assert.ErrorContains(t, err, "service name cannot be empty")

	_, err = New(WithDurationBuckets())
	assert.ErrorContains(t, err, "duration buckets")
}

func TestIncrementCounter(t *testing.T) {
	t.Parallel()

	rec, _ := TestingRecorder(t, WithMaxCustomMetrics(1))
	ctx := context.Background()

	require.NoError(t, rec.IncrementCounter(ctx, "quotes_created"))
	require.NoError(t, rec.IncrementCounter(ctx, "quotes_created"))

	assert.ErrorContains(t, rec.IncrementCounter(ctx, "http_custom"), "reserved prefix")
	assert.ErrorContains(t, rec.IncrementCounter(ctx, "9lives"), "invalid metric name")

	var limit *limitError
	assert.ErrorAs(t, rec.IncrementCounter(ctx, "second_counter"), &limit)
}

func TestShutdownIsIdempotent(t *testing.T) {
	t.Parallel()

	rec := MustNew(WithStdout())
	require.NoError(t, rec.Shutdown(context.Background()))
	require.NoError(t, rec.Shutdown(context.Background()))
	assert.NoError(t, rec.ForceFlush(context.Background()))
}
