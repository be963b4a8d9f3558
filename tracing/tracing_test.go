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
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	apperrors "rivaas.dev/courier/errors"
	"rivaas.dev/courier/protocol"
	"rivaas.dev/courier/protocol/protocoltest"
	"rivaas.dev/courier/response"
)

type staticRoutes map[string]string

func (s staticRoutes) Describe(method, path string) (string, string) {
	if label, ok := s[path]; ok {
		return label, method
	}
	return path, method
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestErrorAwareSampler(t *testing.T) {
	t.Parallel()

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)

	tests := []struct {
		name  string
		ratio float64
		attrs []attribute.KeyValue
		want  sdktrace.SamplingDecision
	}{
		{name: "forced at zero ratio", ratio: 0, attrs: []attribute.KeyValue{ForceSampleKey.Bool(true)}, want: sdktrace.RecordAndSample},
		{name: "not forced at zero ratio", ratio: 0, want: sdktrace.Drop},
		{name: "force false", ratio: 0, attrs: []attribute.KeyValue{ForceSampleKey.Bool(false)}, want: sdktrace.Drop},
		{name: "force as string is ignored", ratio: 0, attrs: []attribute.KeyValue{ForceSampleKey.String("true")}, want: sdktrace.Drop},
		{name: "full ratio", ratio: 1, want: sdktrace.RecordAndSample},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := ErrorAwareSampler(tt.ratio).ShouldSample(sdktrace.SamplingParameters{
				ParentContext: context.Background(),
				TraceID:       traceID,
				Name:          "span",
				Attributes:    tt.attrs,
			})
			assert.Equal(t, tt.want, res.Decision)
		})
	}

	assert.Contains(t, ErrorAwareSampler(0.5).Description(), "ErrorAwareSampler")
}

func TestMiddlewareSpan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		app        protocol.App
		wantStatus int64
		wantError  bool
	}{
		{
			name: "success",
			app: func(ctx context.Context, _ *protocol.Scope, _ protocol.Receive, send protocol.Send) error {
				return response.JSON("ok").Send(ctx, send)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "client error is not a span error",
			app: func(ctx context.Context, _ *protocol.Scope, _ protocol.Receive, send protocol.Send) error {
				return response.JSON("gone", response.WithStatus(http.StatusNotFound)).Send(ctx, send)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "unhandled error",
			app: func(context.Context, *protocol.Scope, protocol.Receive, protocol.Send) error {
				return errors.New("db down")
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr, rec := TestingTracer(t)
			app := Middleware(tr, staticRoutes{"/quotes/7": "/quotes/{id}"})(tt.app)
			_, _ = protocoltest.Do(context.Background(), app, protocoltest.Request{Method: "GET", Path: "/quotes/7"})

			spans := rec.Ended()
			require.Len(t, spans, 1)
			span := spans[0]
			assert.Equal(t, "GET /quotes/{id}", span.Name())
			assert.Equal(t, trace.SpanKindServer, span.SpanKind())

			a := attrs(span)
			assert.Equal(t, "/quotes/{id}", a[attrRoute].AsString())
			assert.Equal(t, "GET", a[attrMethod].AsString())
			assert.Equal(t, tt.wantStatus, a[attrStatusCode].AsInt64())
			if tt.wantError {
				assert.Equal(t, codes.Error, span.Status().Code)
			} else {
				assert.NotEqual(t, codes.Error, span.Status().Code)
			}
		})
	}
}

func TestMiddlewareContinuesRemoteTrace(t *testing.T) {
	t.Parallel()

	tr, rec := TestingTracer(t)
	var inner string
	app := Middleware(tr, staticRoutes{})(func(ctx context.Context, _ *protocol.Scope, _ protocol.Receive, send protocol.Send) error {
		inner = TraceID(ctx)
		return response.JSON("ok").Send(ctx, send)
	})

	_, err := protocoltest.Do(context.Background(), app, protocoltest.Request{
		Path: "/",
		Headers: []protocol.Header{
			{Name: "Traceparent", Value: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"},
		},
	})
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", inner)
}

func TestMiddlewareRecordsHeadersAndSkips(t *testing.T) {
	t.Parallel()

	tr, rec := TestingTracer(t)
	ok := func(ctx context.Context, _ *protocol.Scope, _ protocol.Receive, send protocol.Send) error {
		return response.JSON("ok").Send(ctx, send)
	}
	app := Middleware(tr, staticRoutes{}, WithHeaders("User-Agent", "Authorization"))(ok)

	_, err := protocoltest.Do(context.Background(), app, protocoltest.Request{
		Path: "/quotes",
		Headers: []protocol.Header{
			{Name: "user-agent", Value: "curl/8.5"},
			{Name: "authorization", Value: "Bearer secret"},
		},
	})
	require.NoError(t, err)
	_, err = protocoltest.Do(context.Background(), app, protocoltest.Request{Path: "/metrics"})
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	a := attrs(spans[0])
	assert.Equal(t, "curl/8.5", a[attribute.Key("http.request.header.user-agent")].AsString())
	assert.NotContains(t, a, attribute.Key("http.request.header.authorization"))
}

func TestErrorObserver(t *testing.T) {
	t.Parallel()

	tr, rec := TestingTracer(t, WithErrorAwareSampling(0))
	observe := ErrorObserver(tr)
	observe(context.Background(), &protocol.Scope{Type: protocol.ScopeHTTP}, apperrors.New(http.StatusTeapot, "short and stout"))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "error.418", span.Name())
	assert.True(t, attrs(span)[ForceSampleKey].AsBool())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "418: short and stout", span.Status().Description)
	require.NotEmpty(t, span.Events())
	assert.Equal(t, "exception", span.Events()[0].Name)
}

func TestMiddlewareRecordsEscapedApplicationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		app       protocol.App
		wantSpans []string
	}{
		{
			name: "application error before the response",
			app: func(context.Context, *protocol.Scope, protocol.Receive, protocol.Send) error {
				return apperrors.New(http.StatusRequestTimeout, "Request Timeout")
			},
			wantSpans: []string{"error.408", "GET /slow"},
		},
		{
			name: "plain error",
			app: func(context.Context, *protocol.Scope, protocol.Receive, protocol.Send) error {
				return errors.New("db down")
			},
			wantSpans: []string{"GET /slow"},
		},
		{
			name: "error after the response started",
			app: func(ctx context.Context, _ *protocol.Scope, _ protocol.Receive, send protocol.Send) error {
				if err := send(ctx, protocol.Message{Type: protocol.HTTPResponseStart, Status: http.StatusOK}); err != nil {
					return err
				}
				return apperrors.New(http.StatusRequestTimeout, "Request Timeout")
			},
			wantSpans: []string{"GET /slow"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr, rec := TestingTracer(t)
			app := Middleware(tr, staticRoutes{})(tt.app)
			_, _ = protocoltest.Do(context.Background(), app, protocoltest.Request{Method: "GET", Path: "/slow"})

			spans := rec.Ended()
			names := make([]string, 0, len(spans))
			for _, s := range spans {
				names = append(names, s.Name())
			}
			assert.Equal(t, tt.wantSpans, names)
			if len(spans) == 2 {
				assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
				assert.True(t, attrs(spans[0])[ForceSampleKey].AsBool())
			}
		})
	}
}

func TestHeaderCarrier(t *testing.T) {
	t.Parallel()

	headers := []protocol.Header{{Name: "Accept", Value: "*/*"}, {Name: "Traceparent", Value: "old"}}
	c := HeaderCarrier{Headers: &headers}
	assert.Equal(t, "old", c.Get("traceparent"))

	c.Set("traceparent", "new")
	assert.Equal(t, []string{"Accept", "traceparent"}, c.Keys())
	assert.Equal(t, "new", c.Get("TRACEPARENT"))
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), WithStdout(), WithNoop())
	assert.ErrorContains(t, err, "conflicting provider options")

	_, err = New(context.Background(), WithServiceName(""))
	assert.ErrorContains(t, err, "service name cannot be empty")

	tr := MustNew(context.Background(), WithStdout(), WithServiceName("quotes"))
	assert.Equal(t, StdoutProvider, tr.Provider())
	assert.Equal(t, "quotes", tr.ServiceName())
	require.NoError(t, tr.Shutdown(context.Background()))
	require.NoError(t, tr.Shutdown(context.Background()))

	noop := MustNew(context.Background())
	assert.Equal(t, NoopProvider, noop.Provider())
	ctx, span := noop.StartSpan(context.Background(), "work")
	assert.NotEmpty(t, TraceID(ctx))
	assert.NotEmpty(t, SpanID(ctx))
	span.End()
	assert.NoError(t, noop.Shutdown(context.Background()))
}

func TestOTLPHTTPOptions(t *testing.T) {
	t.Parallel()

	assert.Nil(t, otlpHTTPOptions(""))
	assert.Len(t, otlpHTTPOptions("http://collector:4318/v1/traces"), 2)
	assert.Len(t, otlpHTTPOptions("https://collector:4318"), 1)
}
