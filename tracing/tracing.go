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
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// EventType represents the severity of an internal operational event.
type EventType int

const (
	EventError EventType = iota
	EventWarning
	EventInfo
	EventDebug
)

// Event is an internal operational event, such as an exporter failure.
type Event struct {
	Type    EventType
	Message string
	Args    []any
}

// EventHandler processes internal operational events.
type EventHandler func(Event)

// DefaultEventHandler logs events to logger. A nil logger discards them.
func DefaultEventHandler(logger *slog.Logger) EventHandler {
	if logger == nil {
		return func(Event) {}
	}
	return func(e Event) {
		switch e.Type {
		case EventError:
			logger.Error(e.Message, e.Args...)
		case EventWarning:
			logger.Warn(e.Message, e.Args...)
		case EventInfo:
			logger.Info(e.Message, e.Args...)
		case EventDebug:
			logger.Debug(e.Message, e.Args...)
		}
	}
}

// Provider names a span exporter.
type Provider string

const (
	// NoopProvider records spans but exports nothing (default).
	NoopProvider Provider = "noop"
	// StdoutProvider prints spans to stdout.
	StdoutProvider Provider = "stdout"
	// OTLPProvider exports over OTLP gRPC.
	OTLPProvider Provider = "otlp"
	// OTLPHTTPProvider exports over OTLP HTTP.
	OTLPHTTPProvider Provider = "otlp-http"
)

const (
	DefaultServiceName    = "courier"
	DefaultServiceVersion = "1.0.0"

	instrumentationName = "rivaas.dev/courier/tracing"
)

// Tracer owns a tracer provider, its tracer and the propagator used to read
// inbound trace context. It is safe for concurrent use.
type Tracer struct {
	tracer         trace.Tracer
	tracerProvider trace.TracerProvider
	sdkProvider    *sdktrace.TracerProvider
	propagator     propagation.TextMapPropagator
	sampler        sdktrace.Sampler
	eventHandler   EventHandler

	serviceName    string
	serviceVersion string
	provider       Provider
	providerSet    int
	otlpEndpoint   string
	otlpInsecure   bool

	customTracerProvider bool
	registerGlobal       bool

	shutdownOnce sync.Once
	shutdownErr  error
}

func defaultTracer() *Tracer {
	return &Tracer{
		serviceName:    DefaultServiceName,
		serviceVersion: DefaultServiceVersion,
		provider:       NoopProvider,
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
		sampler:      sdktrace.ParentBased(sdktrace.AlwaysSample()),
		eventHandler: func(Event) {},
	}
}

// New creates a Tracer. Exporters are created with ctx; the OTLP gRPC
// exporter connects lazily.
func New(ctx context.Context, opts ...Option) (*Tracer, error) {
	t := defaultTracer()
	for _, opt := range opts {
		opt(t)
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("invalid tracing configuration: %w", err)
	}
	if err := t.initializeProvider(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// MustNew creates a Tracer or panics.
func MustNew(ctx context.Context, opts ...Option) *Tracer {
	t, err := New(ctx, opts...)
	if err != nil {
		panic(fmt.Sprintf("tracing initialization failed: %v", err))
	}
	return t
}

func (t *Tracer) validate() error {
	var errs []error
	if t.serviceName == "" {
		errs = append(errs, errors.New("service name cannot be empty"))
	}
	if t.providerSet > 1 {
		errs = append(errs, errors.New("conflicting provider options: choose one of WithOTLP, WithOTLPHTTP, WithStdout or WithNoop"))
	}
	if t.customTracerProvider && t.tracerProvider == nil {
		errs = append(errs, errors.New("custom tracer provider is nil"))
	}
	return errors.Join(errs...)
}

// Tracer returns the OpenTelemetry tracer.
func (t *Tracer) Tracer() trace.Tracer { return t.tracer }

// TracerProvider returns the provider spans are created from.
func (t *Tracer) TracerProvider() trace.TracerProvider { return t.tracerProvider }

// Propagator returns the propagator used to extract inbound context.
func (t *Tracer) Propagator() propagation.TextMapPropagator { return t.propagator }

// Provider returns the configured exporter.
func (t *Tracer) Provider() Provider { return t.provider }

// ServiceName returns the service name recorded on the resource.
func (t *Tracer) ServiceName() string { return t.serviceName }

// StartSpan starts a span named name as a child of any span in ctx.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// ForceFlush exports pending spans. It does nothing for custom providers.
func (t *Tracer) ForceFlush(ctx context.Context) error {
	if t.sdkProvider == nil {
		return nil
	}
	return t.sdkProvider.ForceFlush(ctx)
}

// Shutdown flushes and stops the provider. Later calls return the first
// result. Custom providers are left to their owner.
func (t *Tracer) Shutdown(ctx context.Context) error {
	t.shutdownOnce.Do(func() {
		if t.sdkProvider == nil {
			return
		}
		if err := t.sdkProvider.Shutdown(ctx); err != nil {
			t.emitError("Failed to shut down tracer provider", "error", err)
			t.shutdownErr = fmt.Errorf("tracer provider shutdown: %w", err)
		}
	})
	return t.shutdownErr
}

func (t *Tracer) register() {
	if t.registerGlobal {
		t.emitDebug("Setting global OpenTelemetry tracer provider", "provider", t.provider)
		otel.SetTracerProvider(t.tracerProvider)
		otel.SetTextMapPropagator(t.propagator)
	}
}

func (t *Tracer) emitError(msg string, args ...any) {
	t.eventHandler(Event{Type: EventError, Message: msg, Args: args})
}

func (t *Tracer) emitInfo(msg string, args ...any) {
	t.eventHandler(Event{Type: EventInfo, Message: msg, Args: args})
}

func (t *Tracer) emitDebug(msg string, args ...any) {
	t.eventHandler(Event{Type: EventDebug, Message: msg, Args: args})
}

// TraceID returns the trace ID of the span in ctx, or "".
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// SpanID returns the span ID of the span in ctx, or "".
func SpanID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasSpanID() {
		return sc.SpanID().String()
	}
	return ""
}
