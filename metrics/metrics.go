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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// RequestDurationName is the request latency histogram.
const RequestDurationName = "http_request_duration_seconds"

// DefaultDurationBuckets are the histogram boundaries for request duration
// in seconds.
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1.0, 2.5, 5.0, 7.5, 10.0}

// EventType represents the severity of an internal operational event.
type EventType int

const (
	EventError EventType = iota
	EventWarning
	EventInfo
	EventDebug
)

// Event is an internal operational event, such as a failed export.
type Event struct {
	Type    EventType
	Message string
	Args    []any // slog-style key-value pairs
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

// Provider names a metrics backend.
type Provider string

const (
	// PrometheusProvider collects into a private registry exposed in-app on
	// GET /metrics (default).
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider pushes to an OTLP HTTP collector.
	OTLPProvider Provider = "otlp"
	// StdoutProvider prints to stdout.
	StdoutProvider Provider = "stdout"
)

// Recorder owns the meter provider and the request instruments.
// All methods are safe for concurrent use.
//
// The global OpenTelemetry meter provider is left alone unless
// [WithGlobalMeterProvider] is given.
type Recorder struct {
	meter              metric.Meter
	meterProvider      metric.MeterProvider
	prometheusRegistry *promclient.Registry
	eventHandler       EventHandler

	requestDuration metric.Float64Histogram

	customMu         sync.RWMutex
	customCounters   map[string]metric.Int64Counter
	maxCustomMetrics int

	durationBuckets []float64
	exportInterval  time.Duration
	serviceName     string
	serviceVersion  string
	otlpEndpoint    string

	provider            Provider
	providerSetCount    int
	customMeterProvider bool
	registerGlobal      bool
	isShuttingDown      atomic.Bool
}

// New creates a [Recorder].
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		serviceName:      "courier",
		serviceVersion:   "1.0.0",
		provider:         PrometheusProvider,
		exportInterval:   30 * time.Second,
		durationBuckets:  DefaultDurationBuckets,
		maxCustomMetrics: 100,
		customCounters:   make(map[string]metric.Int64Counter),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := r.initializeProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return r, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize metrics: %v", err))
	}
	return r
}

func (r *Recorder) validate() error {
	var errs []error
	if r.providerSetCount > 1 {
		errs = append(errs, errors.New("conflicting provider options: only one of WithPrometheus, WithOTLP, or WithStdout can be used"))
	}
	if r.serviceName == "" {
		errs = append(errs, errors.New("service name cannot be empty"))
	}
	if len(r.durationBuckets) == 0 {
		errs = append(errs, errors.New("duration buckets cannot be empty"))
	}
	if r.maxCustomMetrics < 1 {
		errs = append(errs, fmt.Errorf("maxCustomMetrics must be at least 1, got %d", r.maxCustomMetrics))
	}
	if r.provider == OTLPProvider && r.otlpEndpoint == "" {
		r.emitWarning("OTLP endpoint not specified, will use default", "default", "http://localhost:4318")
		r.otlpEndpoint = "http://localhost:4318"
	}
	return errors.Join(errs...)
}

func (r *Recorder) initInstruments() error {
	r.meter = r.meterProvider.Meter("rivaas.dev/courier/metrics")

	var err error
	r.requestDuration, err = r.meter.Float64Histogram(
		RequestDurationName,
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", RequestDurationName, err)
	}
	return nil
}

// Provider returns the configured backend.
func (r *Recorder) Provider() Provider { return r.provider }

// ServiceName returns the service name.
func (r *Recorder) ServiceName() string { return r.serviceName }

// MeterProvider returns the meter provider in use.
func (r *Recorder) MeterProvider() metric.MeterProvider { return r.meterProvider }

// ForceFlush exports pending data for push-based providers.
func (r *Recorder) ForceFlush(ctx context.Context) error {
	if r.isShuttingDown.Load() {
		return nil
	}
	if mp, ok := r.meterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.ForceFlush(ctx); err != nil {
			return fmt.Errorf("metrics force flush: %w", err)
		}
	}
	return nil
}

// Shutdown flushes and stops the meter provider. Providers passed in with
// [WithMeterProvider] are left to their owner. Shutdown is idempotent.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if !r.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}
	if r.customMeterProvider {
		return nil
	}
	mp, ok := r.meterProvider.(*sdkmetric.MeterProvider)
	if !ok {
		return nil
	}
	if err := mp.ForceFlush(ctx); err != nil {
		r.emitWarning("metrics flush warning", "error", err)
	}
	if err := mp.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}
	return nil
}

func (r *Recorder) emitError(msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: EventError, Message: msg, Args: args})
	}
}

func (r *Recorder) emitWarning(msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: EventWarning, Message: msg, Args: args})
	}
}

func (r *Recorder) emitDebug(msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: EventDebug, Message: msg, Args: args})
	}
}
