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

// Package metrics records request latency with OpenTelemetry.
//
// # Basic Usage
//
//	recorder := metrics.MustNew(metrics.WithServiceName("quotes"))
//	defer recorder.Shutdown(context.Background())
//
//	_ = recorder.Register(registry) // GET /metrics
//	app := middleware.Chain(dispatcher.Serve, metrics.Middleware(recorder, registry))
//
// The histogram is http_request_duration_seconds with the labels path (the
// route template, never the raw path of a matched route), method and
// status_code.
//
// # Providers
//
//   - [PrometheusProvider] (default): private registry, text exposition in-app
//   - [OTLPProvider]: pushes to an OTLP HTTP collector
//   - [StdoutProvider]: prints to stdout
package metrics
