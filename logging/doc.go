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

// Package logging provides structured logging on top of log/slog.
//
// # Basic Usage
//
//	logger := logging.MustNew(
//	    logging.WithJSONHandler(),
//	    logging.WithServiceName("quotes"),
//	    logging.WithLevel(logging.LevelDebug),
//	)
//	defer logger.Shutdown(context.Background())
//	logger.Info("service started", "port", 8001)
//
// Values of the keys password, token, secret, api_key and authorization are
// always replaced with [Redacted].
//
// # Trace correlation
//
// Records logged with a context that carries an OpenTelemetry span get
// trace_id and span_id attributes. [ContextLogger] does the same for code
// that holds a context but logs without one.
//
// # Request logging
//
// [Middleware] emits start_process and finish_process for every HTTP scope.
package logging
