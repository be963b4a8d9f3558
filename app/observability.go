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

package app

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"rivaas.dev/courier/config"
	"rivaas.dev/courier/logging"
	"rivaas.dev/courier/metrics"
	"rivaas.dev/courier/tracing"
)

func (a *App) initObservability(ctx context.Context, logOutput io.Writer) error {
	s := a.settings

	level, err := logging.ParseLevel(s.LoggerLevel)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	logOpts := []logging.Option{
		logging.WithHandlerType(logging.HandlerType(s.LogFormat)),
		logging.WithLevel(level),
		logging.WithServiceName(s.AppName),
		logging.WithServiceVersion(s.AppVersion),
		logging.WithEnvironment(s.Environment),
	}
	if logOutput != nil {
		logOpts = append(logOpts, logging.WithOutput(logOutput))
	}
	if a.logger, err = logging.New(logOpts...); err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	a.onClose(a.logger.Shutdown)
	logger := a.logger.Logger()

	if s.EnableTracing {
		opts, err := tracerOptions(s)
		if err != nil {
			return err
		}
		opts = append(opts,
			tracing.WithServiceName(s.AppName),
			tracing.WithServiceVersion(s.AppVersion),
			tracing.WithErrorAwareSampling(s.SampleRatio()),
			tracing.WithLogger(logger),
		)
		if a.tracer, err = tracing.New(ctx, opts...); err != nil {
			return fmt.Errorf("creating tracer: %w", err)
		}
		a.onClose(a.tracer.Shutdown)
	}

	if s.EnableMetrics {
		opts := []metrics.Option{
			metrics.WithServiceName(s.AppName),
			metrics.WithServiceVersion(s.AppVersion),
			metrics.WithLogger(logger),
		}
		switch s.Metrics() {
		case config.MetricsOTLP:
			opts = append(opts, metrics.WithOTLP(s.EndpointOtel))
		case config.MetricsStdout:
			opts = append(opts, metrics.WithStdout())
		default:
			opts = append(opts, metrics.WithPrometheus())
		}
		if a.metrics, err = metrics.New(opts...); err != nil {
			return fmt.Errorf("creating metrics recorder: %w", err)
		}
		a.onClose(a.metrics.Shutdown)
	}
	return nil
}

// tracerOptions selects the exporter. OTLP gRPC takes host:port, so the
// scheme of endpoint_otel only decides whether TLS is used.
func tracerOptions(s *config.Settings) ([]tracing.Option, error) {
	switch s.Tracing() {
	case config.TracingOTLP:
		u, err := url.Parse(s.EndpointOtel)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("creating tracer: invalid endpoint_otel %q", s.EndpointOtel)
		}
		var otlpOpts []tracing.OTLPOption
		if u.Scheme == "http" {
			otlpOpts = append(otlpOpts, tracing.OTLPInsecure())
		}
		return []tracing.Option{tracing.WithOTLP(u.Host, otlpOpts...)}, nil
	case config.TracingOTLPHTTP:
		return []tracing.Option{tracing.WithOTLPHTTP(s.EndpointOtel)}, nil
	case config.TracingStdout:
		return []tracing.Option{tracing.WithStdout()}, nil
	default:
		return []tracing.Option{tracing.WithNoop()}, nil
	}
}
